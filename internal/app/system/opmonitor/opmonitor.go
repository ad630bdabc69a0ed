// internal/app/system/opmonitor/opmonitor.go

// Package opmonitor watches a collaboration's role documents through a
// MongoDB change stream and keeps a queryable in-memory history of the
// operations it sees. The log is process-lifetime and unbounded; it exists
// for verification and debugging surfaces, not for correctness enforcement.
package opmonitor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/metrics"
)

// Operation types recorded in the log.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	// OpError marks a synthetic entry recorded when the change stream
	// itself fails.
	OpError = "role_monitoring_error"
)

// Entry statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Entry is one observed role operation. Keys follow
// "<collabID>-<docID>-<unix-ms>"; synthetic stream-error entries use
// "error" for the document segment.
type Entry struct {
	Key             string                 `json:"key"`
	Type            string                 `json:"type"`
	CollaborationID primitive.ObjectID     `json:"collaboration_id"`
	RoleID          primitive.ObjectID     `json:"role_id,omitempty"`
	Status          string                 `json:"status"`
	Data            map[string]interface{} `json:"data,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Monitor owns the change-stream subscriptions and the operation log.
// Construct one in the composition root and share it by reference.
type Monitor struct {
	roles *mongo.Collection
	log   *zap.Logger

	mu         sync.RWMutex
	entries    map[string]Entry
	byCollab   map[primitive.ObjectID][]string
	roleLatest map[primitive.ObjectID]string
	// roleCollab attributes delete events, which carry no full document,
	// to the collaboration the role was last seen in.
	roleCollab map[primitive.ObjectID]primitive.ObjectID
	watchers   map[primitive.ObjectID]context.CancelFunc
	subs       map[primitive.ObjectID]map[int]chan Entry
	nextSubID  int
	lastKeyMS  int64

	wg sync.WaitGroup
}

func New(db *mongo.Database, logger *zap.Logger) *Monitor {
	return &Monitor{
		roles:      db.Collection("roles"),
		log:        logger,
		entries:    make(map[string]Entry),
		byCollab:   make(map[primitive.ObjectID][]string),
		roleLatest: make(map[primitive.ObjectID]string),
		roleCollab: make(map[primitive.ObjectID]primitive.ObjectID),
		watchers:   make(map[primitive.ObjectID]context.CancelFunc),
		subs:       make(map[primitive.ObjectID]map[int]chan Entry),
	}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

// Start opens a change stream for the collaboration's roles. ctx bounds the
// stream open only; the stream itself runs until Stop or StopAll. Starting
// an already-monitored collaboration is a no-op.
func (m *Monitor) Start(ctx context.Context, collabID primitive.ObjectID) error {
	m.mu.Lock()
	if _, running := m.watchers[collabID]; running {
		m.mu.Unlock()
		return nil
	}
	// Reserve the slot before the Watch call so concurrent Starts stay
	// idempotent; replaced with the real cancel below.
	m.watchers[collabID] = func() {}
	m.mu.Unlock()

	// Delete events carry only the document key, so they cannot be matched
	// to a collaboration server-side; record() filters them by the learned
	// role index instead.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": []bson.M{
			{"fullDocument.collaboration_id": collabID},
			{"operationType": "delete"},
		}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := m.roles.Watch(ctx, pipeline, opts)
	if err != nil {
		m.mu.Lock()
		delete(m.watchers, collabID)
		m.mu.Unlock()
		return fmt.Errorf("opening role change stream: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.watchers[collabID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(streamCtx, collabID, stream)

	m.log.Info("role monitoring started", zap.String("collaboration_id", collabID.Hex()))
	return nil
}

func (m *Monitor) run(ctx context.Context, collabID primitive.ObjectID, stream *mongo.ChangeStream) {
	defer m.wg.Done()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = stream.Close(closeCtx)
	}()

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			m.recordError(collabID, err)
			return
		}
		m.record(collabID, ev)
	}

	// Stopped deliberately, or died. A dead stream is recorded and left
	// dead; the caller decides whether to start over.
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		m.recordError(collabID, err)
	}
}

// Stop cancels the collaboration's subscription. Recorded entries are kept.
func (m *Monitor) Stop(collabID primitive.ObjectID) {
	m.mu.Lock()
	cancel, ok := m.watchers[collabID]
	if ok {
		delete(m.watchers, collabID)
	}
	m.mu.Unlock()

	if ok {
		cancel()
		m.log.Info("role monitoring stopped", zap.String("collaboration_id", collabID.Hex()))
	}
}

// StopAll cancels every subscription and waits for the stream goroutines to
// drain. Called at shutdown.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	for id, cancel := range m.watchers {
		cancel()
		delete(m.watchers, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Monitoring reports whether a subscription is open for the collaboration.
func (m *Monitor) Monitoring(collabID primitive.ObjectID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.watchers[collabID]
	return ok
}

func (m *Monitor) record(collabID primitive.ObjectID, ev changeEvent) {
	var opType string
	switch ev.OperationType {
	case "insert":
		opType = OpCreate
	case "update", "replace":
		opType = OpUpdate
	case "delete":
		opType = OpDelete
	default:
		return
	}

	roleID := ev.DocumentKey.ID
	now := time.Now().UTC()

	m.mu.Lock()
	if opType == OpDelete {
		// Only deletes of roles this monitor has seen belong to us.
		owner, known := m.roleCollab[roleID]
		if !known || owner != collabID {
			m.mu.Unlock()
			return
		}
	} else {
		m.roleCollab[roleID] = collabID
	}

	entry := Entry{
		Key:             m.nextKey(collabID, roleID.Hex(), now),
		Type:            opType,
		CollaborationID: collabID,
		RoleID:          roleID,
		Status:          StatusCompleted,
		Data:            ev.FullDocument,
		Timestamp:       now,
	}
	m.entries[entry.Key] = entry
	m.byCollab[collabID] = append(m.byCollab[collabID], entry.Key)
	m.roleLatest[roleID] = entry.Key
	listeners := m.listeners(collabID)
	m.mu.Unlock()

	metrics.MonitorOperations.WithLabelValues(entry.Type, entry.Status).Inc()
	broadcast(listeners, entry)
}

func (m *Monitor) recordError(collabID primitive.ObjectID, err error) {
	now := time.Now().UTC()

	m.mu.Lock()
	entry := Entry{
		Key:             m.nextKey(collabID, "error", now),
		Type:            OpError,
		CollaborationID: collabID,
		Status:          StatusFailed,
		Error:           err.Error(),
		Timestamp:       now,
	}
	m.entries[entry.Key] = entry
	m.byCollab[collabID] = append(m.byCollab[collabID], entry.Key)
	listeners := m.listeners(collabID)
	m.mu.Unlock()

	metrics.MonitorStreamErrors.Inc()
	m.log.Error("role change stream failed",
		zap.String("collaboration_id", collabID.Hex()),
		zap.Error(err))
	broadcast(listeners, entry)
}

// nextKey builds "<collab>-<doc>-<ms>". The millisecond is bumped past the
// last issued one so rapid events on the same document each keep an entry.
// Callers hold m.mu.
func (m *Monitor) nextKey(collabID primitive.ObjectID, docSegment string, now time.Time) string {
	ms := now.UnixMilli()
	if ms <= m.lastKeyMS {
		ms = m.lastKeyMS + 1
	}
	m.lastKeyMS = ms
	return fmt.Sprintf("%s-%s-%d", collabID.Hex(), docSegment, ms)
}

// listeners snapshots the subscriber channels. Callers hold m.mu.
func (m *Monitor) listeners(collabID primitive.ObjectID) []chan Entry {
	chans := m.subs[collabID]
	if len(chans) == 0 {
		return nil
	}
	out := make([]chan Entry, 0, len(chans))
	for _, ch := range chans {
		out = append(out, ch)
	}
	return out
}

// broadcast delivers without blocking; a listener that has fallen behind
// misses events rather than stalling the stream goroutine.
func broadcast(listeners []chan Entry, e Entry) {
	for _, ch := range listeners {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of live entries for the collaboration and a
// cancel func that releases it. Subscribing does not start monitoring.
func (m *Monitor) Subscribe(collabID primitive.ObjectID) (<-chan Entry, func()) {
	ch := make(chan Entry, 16)

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	if m.subs[collabID] == nil {
		m.subs[collabID] = make(map[int]chan Entry)
	}
	m.subs[collabID][id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if chans, ok := m.subs[collabID]; ok {
			delete(chans, id)
			if len(chans) == 0 {
				delete(m.subs, collabID)
			}
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// History returns every recorded entry for the collaboration, newest first.
func (m *Monitor) History(collabID primitive.ObjectID) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.byCollab[collabID]
	out := make([]Entry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		out = append(out, m.entries[keys[i]])
	}
	return out
}

// VerifyRoleData compares the most recent entry for the role against the
// expected fields. A value may be a literal, compared with DeepEqual, or a
// func(interface{}) bool predicate. Returns false when the role has no
// recorded entry. Debug tool only.
func (m *Monitor) VerifyRoleData(roleID primitive.ObjectID, expected map[string]interface{}) bool {
	m.mu.RLock()
	key, ok := m.roleLatest[roleID]
	var entry Entry
	if ok {
		entry = m.entries[key]
	}
	m.mu.RUnlock()

	if !ok {
		return false
	}
	for field, want := range expected {
		got, present := entry.Data[field]
		if pred, isPred := want.(func(interface{}) bool); isPred {
			if !pred(got) {
				return false
			}
			continue
		}
		if !present || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// CheckAtomicity reports whether every key resolves to an entry and all
// resolved entries completed. Vacuously true for an empty key set.
func (m *Monitor) CheckAtomicity(keys []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, k := range keys {
		entry, ok := m.entries[k]
		if !ok || entry.Status != StatusCompleted {
			return false
		}
	}
	return true
}
