package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// ConversationStoreManager defines the interface for the durable
// conversation store under conversations/. Each conversation lives in its
// own YAML file; a denormalized index document serves listing without
// loading bodies.
type ConversationStoreManager interface {
	Create(topic, owner string, tags []string) (*models.Conversation, error)
	Get(id string) (*models.Conversation, error)
	AppendMessage(id string, msg models.Message) (*models.Conversation, error)
	LinkArtifact(id string, link models.ArtifactLink) (*models.Conversation, error)
	Close(id string) (*models.Conversation, error)
	List(filter models.ConversationFilter) ([]models.ConversationIndexEntry, error)
	Load() error
}

type fileConversationStore struct {
	basePath     string
	defaultOwner string
	closedPolicy models.ClosedConversationPolicy

	// indexMu guards the index document; locks holds one mutex per
	// conversation so appends to different conversations do not serialize.
	indexMu sync.Mutex
	index   models.ConversationIndex

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewConversationStoreManager creates a ConversationStoreManager backed by
// YAML files under conversations/ in the given base directory.
func NewConversationStoreManager(basePath, defaultOwner string, closedPolicy models.ClosedConversationPolicy) ConversationStoreManager {
	if defaultOwner == "" {
		defaultOwner = "local"
	}
	if closedPolicy == "" {
		closedPolicy = models.ClosedPolicyReject
	}
	return &fileConversationStore{
		basePath:     basePath,
		defaultOwner: defaultOwner,
		closedPolicy: closedPolicy,
		index:        models.ConversationIndex{Version: "1.0"},
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *fileConversationStore) conversationsDir() string {
	return filepath.Join(s.basePath, "conversations")
}

func (s *fileConversationStore) indexPath() string {
	return filepath.Join(s.conversationsDir(), "index.yaml")
}

func (s *fileConversationStore) conversationPath(id string) string {
	return filepath.Join(s.conversationsDir(), id+".yaml")
}

// lockFor returns the per-conversation mutex, creating it on first use.
func (s *fileConversationStore) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

// generateConversationID builds conv_<date>_<owner>_<suffix>. The owner is
// flattened so the ID stays filename-safe.
func generateConversationID(owner string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, owner)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("conv_%s_%s_%s", now.Format("2006-01-02"), safe, suffix)
}

// Create starts a new active conversation. An empty owner resolves to the
// configured default.
func (s *fileConversationStore) Create(topic, owner string, tags []string) (*models.Conversation, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, &core.ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if owner == "" {
		owner = s.defaultOwner
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        generateConversationID(owner, now),
		Topic:     topic,
		Owner:     owner,
		Tags:      tags,
		Status:    models.ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mu := s.lockFor(conv.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.persist(conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

// Get loads the full conversation by ID.
func (s *fileConversationStore) Get(id string) (*models.Conversation, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return s.loadConversation(id)
}

func (s *fileConversationStore) loadConversation(id string) (*models.Conversation, error) {
	path := s.conversationPath(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
	}
	var conv models.Conversation
	if err := loadYAML(path, &conv); err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	return &conv, nil
}

// AppendMessage appends one message to a conversation. Appends to a closed
// conversation follow the configured policy: reject with
// ErrConversationClosed, or implicitly reopen. A surface not yet on the
// conversation is added on first append from it.
func (s *fileConversationStore) AppendMessage(id string, msg models.Message) (*models.Conversation, error) {
	if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
		return nil, &core.ValidationError{Field: "role", Reason: "must be user or assistant"}
	}
	if msg.Content == "" {
		return nil, &core.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if msg.Surface == "" {
		return nil, &core.ValidationError{Field: "surface", Reason: "must not be empty"}
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return nil, err
	}

	if conv.Status == models.ConversationClosed {
		if s.closedPolicy == models.ClosedPolicyReject {
			return nil, fmt.Errorf("appending to %s: %w", id, core.ErrConversationClosed)
		}
		conv.Status = models.ConversationActive
	}

	if msg.ID == "" {
		msg.ID = "msg_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	conv.Messages = append(conv.Messages, msg)
	conv.MessageCount = len(conv.Messages)
	if !conv.HasSurface(msg.Surface) {
		conv.Surfaces = append(conv.Surfaces, msg.Surface)
	}
	conv.UpdatedAt = time.Now().UTC()

	if err := s.persist(conv); err != nil {
		return nil, fmt.Errorf("appending to %s: %w", id, err)
	}
	return conv, nil
}

// LinkArtifact attaches an artifact reference to a conversation. Linking an
// already linked artifact ID is an idempotent no-op.
func (s *fileConversationStore) LinkArtifact(id string, link models.ArtifactLink) (*models.Conversation, error) {
	if link.ID == "" {
		return nil, &core.ValidationError{Field: "artifact id", Reason: "must not be empty"}
	}
	if link.Confidence < 0 || link.Confidence > 1 {
		return nil, &core.ValidationError{Field: "confidence", Reason: "must be between 0 and 1"}
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return nil, err
	}

	for _, existing := range conv.Artifacts {
		if existing.ID == link.ID {
			return conv, nil
		}
	}

	if link.LinkedAt.IsZero() {
		link.LinkedAt = time.Now().UTC()
	}
	conv.Artifacts = append(conv.Artifacts, link)
	conv.UpdatedAt = time.Now().UTC()

	if err := s.persist(conv); err != nil {
		return nil, fmt.Errorf("linking artifact to %s: %w", id, err)
	}
	return conv, nil
}

// Close marks a conversation closed. Closing an already closed conversation
// is a no-op.
func (s *fileConversationStore) Close(id string) (*models.Conversation, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return nil, err
	}
	if conv.Status == models.ConversationClosed {
		return conv, nil
	}

	conv.Status = models.ConversationClosed
	conv.UpdatedAt = time.Now().UTC()

	if err := s.persist(conv); err != nil {
		return nil, fmt.Errorf("closing %s: %w", id, err)
	}
	return conv, nil
}

// List returns index entries matching the filter, most recently updated
// first. All filter fields are ANDed; empty fields match everything.
func (s *fileConversationStore) List(filter models.ConversationFilter) ([]models.ConversationIndexEntry, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	var result []models.ConversationIndexEntry
	for _, entry := range s.index.Conversations {
		if filter.Owner != "" && entry.Owner != filter.Owner {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.Surface != "" && !containsString(entry.Surfaces, filter.Surface) {
			continue
		}
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// persist writes the conversation record first, then re-derives its index
// entry. Caller holds the per-conversation lock; the record on disk is the
// source of truth if the index write fails.
func (s *fileConversationStore) persist(conv *models.Conversation) error {
	if err := saveYAMLAtomic(s.conversationPath(conv.ID), conv); err != nil {
		return err
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	entry := models.ConversationIndexEntry{
		ID:           conv.ID,
		Topic:        conv.Topic,
		Owner:        conv.Owner,
		Surfaces:     conv.Surfaces,
		Status:       conv.Status,
		MessageCount: conv.MessageCount,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}

	replaced := false
	for i := range s.index.Conversations {
		if s.index.Conversations[i].ID == conv.ID {
			s.index.Conversations[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.index.Conversations = append(s.index.Conversations, entry)
	}
	s.index.LastUpdated = time.Now().UTC()

	return saveYAMLAtomic(s.indexPath(), &s.index)
}

// Load reads the conversation index from disk. Missing files start empty.
func (s *fileConversationStore) Load() error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.index = models.ConversationIndex{}
	if err := loadYAML(s.indexPath(), &s.index); err != nil {
		return fmt.Errorf("loading conversation index: %w", err)
	}
	if s.index.Version == "" {
		s.index.Version = "1.0"
	}
	return nil
}
