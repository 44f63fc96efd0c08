// Package storage reads the opencode agent's file-backed record store:
// one JSON file per message under message/<sessionID>/, and one per message
// part under part/<sessionID>/<messageID>/. Records are parsed into domain
// types; unreadable or malformed files are the caller's to skip.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xiello/opencode-usage/internal/models"
)

// Store reads records below a single storage root.
type Store struct {
	root string
}

// New creates a store reader for the given root directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// MessageFiles lists every message record file under the root. A missing
// directory yields an empty list, not an error.
func (s *Store) MessageFiles() []string {
	return listJSON(filepath.Join(s.root, "message"))
}

// PartFiles lists every part record file under the root.
func (s *Store) PartFiles() []string {
	return listJSON(filepath.Join(s.root, "part"))
}

func listJSON(dir string) []string {
	var paths []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths
}

// messageRecord is the wire shape of a stored message. Unknown fields are
// ignored; timestamps are Unix milliseconds.
type messageRecord struct {
	ID         string `json:"id"`
	SessionID  string `json:"sessionID"`
	Role       string `json:"role"`
	Agent      string `json:"agent"`
	ModelID    string `json:"modelID"`
	ProviderID string `json:"providerID"`
	Cost       float64 `json:"cost"`
	Time       struct {
		Created int64 `json:"created"`
	} `json:"time"`
	Tokens *struct {
		Input     int64 `json:"input"`
		Output    int64 `json:"output"`
		Reasoning int64 `json:"reasoning"`
		Cache     struct {
			Read  int64 `json:"read"`
			Write int64 `json:"write"`
		} `json:"cache"`
	} `json:"tokens"`
}

// ReadMessage decodes one message record. Absent provider, model, and agent
// ids normalize to the unknown key; a missing tokens block stays nil.
func (s *Store) ReadMessage(path string) (models.UsageMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UsageMessage{}, fmt.Errorf("read message record: %w", err)
	}

	var rec messageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.UsageMessage{}, fmt.Errorf("decode message record %s: %w", filepath.Base(path), err)
	}
	if rec.ID == "" {
		return models.UsageMessage{}, fmt.Errorf("message record %s has no id", filepath.Base(path))
	}

	msg := models.UsageMessage{
		ID:         rec.ID,
		SessionID:  rec.SessionID,
		Agent:      orUnknown(rec.Agent),
		ModelID:    orUnknown(rec.ModelID),
		ProviderID: orUnknown(rec.ProviderID),
		CreatedAt:  time.UnixMilli(rec.Time.Created),
		Cost:       rec.Cost,
	}
	if rec.Tokens != nil {
		msg.Tokens = &models.TokenUsage{
			Input:     rec.Tokens.Input,
			Output:    rec.Tokens.Output,
			Reasoning: rec.Tokens.Reasoning,
			Cache: models.CacheTokens{
				Read:  rec.Tokens.Cache.Read,
				Write: rec.Tokens.Cache.Write,
			},
		}
	}
	return msg, nil
}

// Part is a decoded message part, the unit the rate-limit detector inspects.
type Part struct {
	ID        string
	MessageID string
	SessionID string
	Type      string
	Tool      string
	Status    string
	Output    string
	Error     string
	EndedAt   time.Time
}

type partRecord struct {
	ID        string `json:"id"`
	MessageID string `json:"messageID"`
	SessionID string `json:"sessionID"`
	Type      string `json:"type"`
	Tool      string `json:"tool"`
	State     struct {
		Status string `json:"status"`
		Output string `json:"output"`
		Error  string `json:"error"`
		Time   struct {
			Start int64 `json:"start"`
			End   int64 `json:"end"`
		} `json:"time"`
	} `json:"state"`
}

// ReadPart decodes one part record.
func (s *Store) ReadPart(path string) (Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Part{}, fmt.Errorf("read part record: %w", err)
	}

	var rec partRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Part{}, fmt.Errorf("decode part record %s: %w", filepath.Base(path), err)
	}
	if rec.ID == "" {
		return Part{}, fmt.Errorf("part record %s has no id", filepath.Base(path))
	}

	ended := rec.State.Time.End
	if ended == 0 {
		ended = rec.State.Time.Start
	}
	return Part{
		ID:        rec.ID,
		MessageID: rec.MessageID,
		SessionID: rec.SessionID,
		Type:      rec.Type,
		Tool:      rec.Tool,
		Status:    rec.State.Status,
		Output:    rec.State.Output,
		Error:     rec.State.Error,
		EndedAt:   time.UnixMilli(ended),
	}, nil
}

func orUnknown(v string) string {
	if v == "" {
		return models.UnknownKey
	}
	return v
}
