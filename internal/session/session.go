package session

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// CookieName is the session cookie shared with the OAuth handshake
const CookieName = "stagepost_session"

const sessionMaxAge = 30 * 24 * 60 * 60

// Session keys. Other keys (gothic's handshake state) may live in the same session.
const (
	keyUserID            = "user_id"
	keyAnonID            = "anon_id"
	keySystemPrompt      = "twitter_system_prompt"
	keySystemPromptChat  = "twitter_system_prompt_chat"
	keyProfile           = "twitter_profile"
	keyTwitterToken      = "twitter_access_token"
	keyTwitterSecret     = "twitter_access_secret"
	keyTwitterUserID     = "twitter_user_id"
	keyTwitterScreenName = "twitter_screen_name"
)

// TwitterCredentials are the OAuth1 user tokens from the X handshake
type TwitterCredentials struct {
	AccessToken  string `json:"-"`
	AccessSecret string `json:"-"`
	UserID       string `json:"userId"`
	ScreenName   string `json:"screenName"`
}

// Data is the typed view of the keys this service owns
type Data struct {
	UserID  string
	AnonID  string
	Profile *models.ArtistProfile
	Twitter *TwitterCredentials
}

// Store reads and writes session data in a gorilla/sessions store
type Store struct {
	backend sessions.Store
}

// NewStore creates a cookie-backed session store. Cookies are signed with
// secret and encrypted with a key derived from it, since they carry OAuth tokens.
func NewStore(secret string, secure bool) *Store {
	blockKey := sha256.Sum256([]byte("stagepost-session-encryption:" + secret))
	cookies := sessions.NewCookieStore([]byte(secret), blockKey[:])
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{backend: cookies}
}

// Backend exposes the underlying store so the OAuth handshake can share it
func (s *Store) Backend() sessions.Store {
	return s.backend
}

func (s *Store) session(r *http.Request) (*sessions.Session, error) {
	sess, err := s.backend.Get(r, CookieName)
	if err != nil && sess == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	// A cookie that fails to decode yields a fresh session; keep going with it
	return sess, nil
}

// Get returns the session data for the request
func (s *Store) Get(r *http.Request) (*Data, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	data := &Data{
		UserID: stringValue(sess, keyUserID),
		AnonID: stringValue(sess, keyAnonID),
	}
	if raw := stringValue(sess, keyProfile); raw != "" {
		var profile models.ArtistProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			data.Profile = &profile
		}
	}
	if token := stringValue(sess, keyTwitterToken); token != "" {
		data.Twitter = &TwitterCredentials{
			AccessToken:  token,
			AccessSecret: stringValue(sess, keyTwitterSecret),
			UserID:       stringValue(sess, keyTwitterUserID),
			ScreenName:   stringValue(sess, keyTwitterScreenName),
		}
	}
	return data, nil
}

// Save writes data back, leaving keys it does not own untouched
func (s *Store) Save(w http.ResponseWriter, r *http.Request, data *Data) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}

	setOrDelete(sess, keyUserID, data.UserID)
	setOrDelete(sess, keyAnonID, data.AnonID)

	if data.Profile != nil {
		raw, err := json.Marshal(data.Profile)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		sess.Values[keyProfile] = string(raw)
	} else {
		delete(sess.Values, keyProfile)
	}

	creds := data.Twitter
	if creds == nil {
		creds = &TwitterCredentials{}
	}
	setOrDelete(sess, keyTwitterToken, creds.AccessToken)
	setOrDelete(sess, keyTwitterSecret, creds.AccessSecret)
	setOrDelete(sess, keyTwitterUserID, creds.UserID)
	setOrDelete(sess, keyTwitterScreenName, creds.ScreenName)

	return sess.Save(r, w)
}

// OwnerID returns the signed-in user id, or a stable anonymous id that is
// created and saved on first use.
func (s *Store) OwnerID(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := s.Get(r)
	if err != nil {
		return "", err
	}
	if data.UserID != "" {
		return data.UserID, nil
	}
	if data.AnonID != "" {
		return data.AnonID, nil
	}

	data.AnonID = uuid.New().String()
	if err := s.Save(w, r, data); err != nil {
		return "", err
	}
	return data.AnonID, nil
}

// SetSystemPrompt stores a one-shot instruction for the next turn on chatID.
// An instruction stored without a chat is never served.
func (s *Store) SetSystemPrompt(w http.ResponseWriter, r *http.Request, chatID, prompt string) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}
	sess.Values[keySystemPrompt] = prompt
	setOrDelete(sess, keySystemPromptChat, chatID)
	return sess.Save(r, w)
}

// TakeSystemPrompt reads and clears the one-shot instruction in one step.
// It returns "" when none is stored or when it is not bound to chatID; the
// stored value is cleared in every case so it can never reach a later turn.
func (s *Store) TakeSystemPrompt(w http.ResponseWriter, r *http.Request, chatID string) (string, error) {
	sess, err := s.session(r)
	if err != nil {
		return "", err
	}

	prompt := stringValue(sess, keySystemPrompt)
	boundChat := stringValue(sess, keySystemPromptChat)
	if prompt == "" && boundChat == "" {
		return "", nil
	}

	delete(sess.Values, keySystemPrompt)
	delete(sess.Values, keySystemPromptChat)
	if err := sess.Save(r, w); err != nil {
		return "", err
	}

	if boundChat == "" || boundChat != chatID {
		return "", nil
	}
	return prompt, nil
}

// ClearSystemPrompt drops any stored one-shot instruction
func (s *Store) ClearSystemPrompt(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}
	if _, ok := sess.Values[keySystemPrompt]; !ok {
		return nil
	}
	delete(sess.Values, keySystemPrompt)
	delete(sess.Values, keySystemPromptChat)
	return sess.Save(r, w)
}

func stringValue(sess *sessions.Session, key string) string {
	if v, ok := sess.Values[key].(string); ok {
		return v
	}
	return ""
}

func setOrDelete(sess *sessions.Session, key, value string) {
	if value == "" {
		delete(sess.Values, key)
		return
	}
	sess.Values[key] = value
}
