package auth

import (
	"os"
	"time"
)

// envVars maps a service to its client id and secret variables.
var envVars = map[string][2]string{
	ServiceImgur:  {"IMAGEGRAB_IMGUR_CLIENT_ID", "IMAGEGRAB_IMGUR_CLIENT_SECRET"},
	ServiceReddit: {"IMAGEGRAB_REDDIT_APP_ID", ""},
}

// EnvironmentStore reads credentials from IMAGEGRAB_* variables. It is
// read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(service string) (*Credential, error) {
	vars, ok := envVars[service]
	if !ok {
		return nil, ErrInvalidCredentials
	}

	id := os.Getenv(vars[0])
	if id == "" {
		return nil, ErrCredentialsNotFound
	}

	var secret string
	if vars[1] != "" {
		secret = os.Getenv(vars[1])
	}

	return &Credential{
		Service:      service,
		ClientID:     id,
		Secret:       secret,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, service := range []string{ServiceImgur, ServiceReddit} {
		if cred, err := e.Retrieve(service); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

func (e *EnvironmentStore) Delete(service string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(service string) bool {
	vars, ok := envVars[service]
	return ok && os.Getenv(vars[0]) != ""
}
