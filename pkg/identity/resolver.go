package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
)

var ErrKeyNotFound = errors.New("access key not found")

type Identity struct {
	AccessKey     string
	ParticipantID string
}

// EmailDirectory finds the participant registered with an email address.
type EmailDirectory interface {
	ParticipantIDByEmail(ctx context.Context, email string) (string, bool, error)
}

type Resolver struct {
	mapping   *Mapping
	directory EmailDirectory
}

// NewResolver builds a resolver. directory may be nil, in which case email lookups
// always fail.
func NewResolver(mapping *Mapping, directory EmailDirectory) *Resolver {
	return &Resolver{
		mapping:   mapping,
		directory: directory,
	}
}

func (r *Resolver) ResolveByKey(accessKey string) (Identity, error) {
	if accessKey == "" || r.mapping == nil {
		return Identity{}, ErrKeyNotFound
	}
	id, ok := r.mapping.ParticipantID(accessKey)
	if !ok {
		return Identity{}, ErrKeyNotFound
	}
	return Identity{AccessKey: accessKey, ParticipantID: id}, nil
}

// ResolveByEmail maps a registered email address to the participant's identity.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (Identity, error) {
	email = strings.TrimSpace(email)
	if r.directory == nil || r.mapping == nil || !accesskey.IsEmailAddress(email) {
		return Identity{}, ErrKeyNotFound
	}

	id, found, err := r.directory.ParticipantIDByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if !found {
		return Identity{}, ErrKeyNotFound
	}

	key, ok := r.mapping.AccessKey(id)
	if !ok {
		slog.Warn("registered participant has no access key", slog.String("participantID", id))
		return Identity{}, ErrKeyNotFound
	}
	return Identity{AccessKey: key, ParticipantID: id}, nil
}
