package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Validation("bad %s", "input"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("chat"), http.StatusNotFound},
		{"publish unauthorized", fmt.Errorf("%w: expired", apperrors.ErrPublishUnauthorized), http.StatusUnauthorized},
		{"publish", apperrors.Publish(errors.New("rate limited")), http.StatusBadGateway},
		{"generation", apperrors.Generation(context.DeadlineExceeded), http.StatusBadGateway},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalErrors(t *testing.T) {
	err := errors.New("pq: connection refused")
	assert.Equal(t, "Internal server error", publicMessage(err, http.StatusInternalServerError))

	notFound := apperrors.NotFound("chat")
	assert.Equal(t, notFound.Error(), publicMessage(notFound, http.StatusNotFound))
}
