package models

import (
	"encoding/json"
	"fmt"
)

// PartType is the durable tag of a stored message part
type PartType string

// Durable part tags. Storage never holds any other tag.
const (
	PartText         PartType = "text"
	PartProfileForm  PartType = "twitter_profile_form"
	PartPostSelector PartType = "twitter_post_selector"
	PartPostCard     PartType = "twitter_post_card"
)

// Valid reports whether t is one of the durable tags
func (t PartType) Valid() bool {
	switch t {
	case PartText, PartProfileForm, PartPostSelector, PartPostCard:
		return true
	}
	return false
}

// PostSelectorData carries the generated variants offered to the user
type PostSelectorData struct {
	Posts   []string       `json:"posts"`
	Profile *ArtistProfile `json:"profile,omitempty"`
}

// PostCardData carries the single variant the user picked
type PostCardData struct {
	Content string `json:"content"`
	Variant *int   `json:"variant,omitempty"`
}

// Part is one typed element of a stored message.
// Exactly one payload is set, matching Type.
type Part struct {
	Type     PartType
	Text     string
	Selector *PostSelectorData
	Card     *PostCardData
}

// TextPart builds a plain text part
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

type partJSON struct {
	Type PartType        `json:"type"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON writes the {type, text|data} shape stored in the parts column
func (p Part) MarshalJSON() ([]byte, error) {
	out := partJSON{Type: p.Type}
	var data any
	switch p.Type {
	case PartText:
		out.Text = p.Text
	case PartProfileForm:
		data = map[string]any{}
	case PartPostSelector:
		if p.Selector == nil {
			return nil, fmt.Errorf("part %s has no selector data", p.Type)
		}
		data = p.Selector
	case PartPostCard:
		if p.Card == nil {
			return nil, fmt.Errorf("part %s has no card data", p.Type)
		}
		data = p.Card
	default:
		return nil, fmt.Errorf("unknown part type %q", p.Type)
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the stored shape back into a typed part
func (p *Part) UnmarshalJSON(b []byte) error {
	var in partJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*p = Part{Type: in.Type}
	switch in.Type {
	case PartText:
		p.Text = in.Text
	case PartProfileForm:
	case PartPostSelector:
		p.Selector = &PostSelectorData{}
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, p.Selector); err != nil {
				return fmt.Errorf("decode %s data: %w", in.Type, err)
			}
		}
	case PartPostCard:
		p.Card = &PostCardData{}
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, p.Card); err != nil {
				return fmt.Errorf("decode %s data: %w", in.Type, err)
			}
		}
	default:
		return fmt.Errorf("unknown part type %q", in.Type)
	}
	return nil
}
