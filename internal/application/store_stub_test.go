package application

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// memStore is an in-memory persistence.Store. Atomic restores the previous
// state when fn fails.
type memStore struct {
	containers   map[string]scheduler.Container
	slots        map[string]scheduler.Slot
	classes      map[string]scheduler.Class
	subjectNames map[string]string
	assignments  map[string][]scheduler.SubjectAssignment
	students     map[string][]string

	insertErr error
	deleteErr error
	atomicMu  sync.Mutex
}

var (
	_ persistence.Store         = (*memStore)(nil)
	_ persistence.ScheduleStore = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		containers:   make(map[string]scheduler.Container),
		slots:        make(map[string]scheduler.Slot),
		classes:      make(map[string]scheduler.Class),
		subjectNames: make(map[string]string),
		assignments:  make(map[string][]scheduler.SubjectAssignment),
		students:     make(map[string][]string),
	}
}

func (m *memStore) addClass(id, name string) {
	m.classes[id] = scheduler.Class{ID: id, Name: name, AcademicYear: "2025"}
}

func (m *memStore) addContainer(c scheduler.Container) {
	m.containers[c.ID] = c
}

func (m *memStore) addSlot(s scheduler.Slot) {
	if s.Kind == "" {
		s.Kind = m.containers[s.ContainerID].Kind
	}
	m.slots[s.ID] = s
}

func (m *memStore) Atomic(ctx context.Context, fn func(tx persistence.ScheduleStore) error) error {
	m.atomicMu.Lock()
	defer m.atomicMu.Unlock()

	containers := maps.Clone(m.containers)
	slotsCopy := maps.Clone(m.slots)
	if err := fn(m); err != nil {
		m.containers = containers
		m.slots = slotsCopy
		return err
	}
	return nil
}

func (m *memStore) CreateContainer(ctx context.Context, c scheduler.Container) error {
	if _, exists := m.containers[c.ID]; exists {
		return persistence.ErrDuplicate
	}
	m.containers[c.ID] = c
	return nil
}

func (m *memStore) GetContainer(ctx context.Context, id string) (scheduler.Container, error) {
	c, ok := m.containers[id]
	if !ok {
		return scheduler.Container{}, persistence.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListContainers(ctx context.Context, filter persistence.ContainerFilter) ([]scheduler.Container, error) {
	var out []scheduler.Container
	for _, c := range m.containers {
		if filter.Kind != "" && c.Kind != filter.Kind {
			continue
		}
		if filter.ClassID != "" && c.ClassID != filter.ClassID {
			continue
		}
		if filter.AcademicYear != "" && c.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteContainer(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.containers[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.containers, id)
	for sid, s := range m.slots {
		if s.ContainerID == id {
			delete(m.slots, sid)
		}
	}
	return nil
}

func (m *memStore) TransitionContainer(ctx context.Context, id string, from []scheduler.Status, to scheduler.Status, at time.Time) (bool, error) {
	c, ok := m.containers[id]
	if !ok || !slices.Contains(from, c.Status) {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = at
	m.containers[id] = c
	return true, nil
}

func (m *memStore) ActiveTimetableForClass(ctx context.Context, classID string) (scheduler.Container, error) {
	for _, c := range m.containers {
		if c.Kind == scheduler.KindTimetable && c.ClassID == classID && c.Status == scheduler.StatusActive {
			return c, nil
		}
	}
	return scheduler.Container{}, persistence.ErrNotFound
}

func (m *memStore) ArchiveActiveTimetables(ctx context.Context, classID, exceptID string, at time.Time) (int64, error) {
	var n int64
	for id, c := range m.containers {
		if id == exceptID || c.Kind != scheduler.KindTimetable || c.ClassID != classID || c.Status != scheduler.StatusActive {
			continue
		}
		c.Status = scheduler.StatusArchived
		c.UpdatedAt = at
		m.containers[id] = c
		n++
	}
	return n, nil
}

func (m *memStore) InsertSlot(ctx context.Context, s scheduler.Slot) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, exists := m.slots[s.ID]; exists {
		return persistence.ErrDuplicate
	}
	if _, ok := m.containers[s.ContainerID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	m.slots[s.ID] = s
	return nil
}

func (m *memStore) UpdateSlot(ctx context.Context, s scheduler.Slot) error {
	if _, ok := m.slots[s.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.slots[s.ID] = s
	return nil
}

func (m *memStore) GetSlot(ctx context.Context, id string) (scheduler.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return scheduler.Slot{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSlot(ctx context.Context, id string) error {
	if _, ok := m.slots[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *memStore) ListSlotsForContainer(ctx context.Context, containerID string) ([]scheduler.Slot, error) {
	var out []scheduler.Slot
	for _, s := range m.slots {
		if s.ContainerID == containerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Key.Date.Equal(b.Key.Date) {
			return a.Key.Date.Before(b.Key.Date)
		}
		if a.Key.Weekday != b.Key.Weekday {
			return scheduler.ISOWeekday(a.Key.Weekday) < scheduler.ISOWeekday(b.Key.Weekday)
		}
		if a.Key.Timed() && b.Key.Timed() && a.Key.Window.Start != b.Key.Window.Start {
			return a.Key.Window.Start < b.Key.Window.Start
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStore) ListClassSlots(ctx context.Context, filter persistence.ClassSlotFilter) ([]scheduler.Slot, error) {
	var out []scheduler.Slot
	for _, s := range m.slots {
		c := m.containers[s.ContainerID]
		if s.ClassID != filter.ClassID || c.Kind != filter.Kind || c.Status != filter.Status {
			continue
		}
		if filter.AcademicYear != "" && c.AcademicYear != filter.AcademicYear {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Key.Date.Equal(b.Key.Date) {
			return a.Key.Date.Before(b.Key.Date)
		}
		if a.Key.Window.Start != b.Key.Window.Start {
			return a.Key.Window.Start < b.Key.Window.Start
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStore) FindBookings(ctx context.Context, q scheduler.BookingQuery) ([]scheduler.Booking, error) {
	var out []scheduler.Booking
	for _, s := range m.slots {
		if s.Kind != q.Kind || !s.Key.Timed() || s.Key.Bucket() != q.Key.Bucket() {
			continue
		}
		if m.containers[s.ContainerID].Status == scheduler.StatusArchived {
			continue
		}
		var bound string
		switch q.Type {
		case scheduler.ResourceTeacher:
			bound = s.TeacherID
		case scheduler.ResourceRoom:
			bound = s.RoomID
		case scheduler.ResourceClass:
			bound = s.ClassID
		}
		if bound != q.ResourceID {
			continue
		}
		out = append(out, scheduler.Booking{
			Slot:          s,
			ContainerName: m.containers[s.ContainerID].Name,
			ClassName:     m.classes[s.ClassID].Name,
			SubjectName:   m.subjectNames[s.SubjectID],
		})
	}
	return out, nil
}

func (m *memStore) GetClass(ctx context.Context, id string) (scheduler.Class, error) {
	c, ok := m.classes[id]
	if !ok {
		return scheduler.Class{}, persistence.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListSubjectAssignments(ctx context.Context, classID string) ([]scheduler.SubjectAssignment, error) {
	return m.assignments[classID], nil
}

func (m *memStore) StudentUserIDs(ctx context.Context, classID string) ([]string, error) {
	return m.students[classID], nil
}

type notifierStub struct {
	mu   sync.Mutex
	sent []notify.ClassNotification
	err  error
}

func (n *notifierStub) NotifyClass(ctx context.Context, note notify.ClassNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

type metricsStub struct {
	mu            sync.Mutex
	conflicts     int
	committed     map[string]int
	generations   map[string]int
	transitions   map[scheduler.Status]int
	notifications map[string]int
}

func newMetricsStub() *metricsStub {
	return &metricsStub{
		committed:     make(map[string]int),
		generations:   make(map[string]int),
		transitions:   make(map[scheduler.Status]int),
		notifications: make(map[string]int),
	}
}

func (m *metricsStub) ConflictsDetected(kind scheduler.Kind, conflicts []scheduler.Conflict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts += len(conflicts)
}

func (m *metricsStub) SlotCommitted(kind scheduler.Kind, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed[source]++
}

func (m *metricsStub) GenerationFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[outcome]++
}

func (m *metricsStub) Transitioned(kind scheduler.Kind, to scheduler.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[to]++
}

func (m *metricsStub) NotificationDelivered(event string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.notifications["failed"]++
		return
	}
	m.notifications["sent"]++
}

func (m *metricsStub) LockAcquired(time.Duration) {}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%03d", prefix, n)
	}
}

func fixedNow() time.Time {
	return time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)
}

var (
	admin   = Principal{UserID: "admin-1", Role: RoleAdmin}
	student = Principal{UserID: "student-1", Role: RoleStudent}
)

func mustWindow(start, end string) scheduler.Window {
	w, err := scheduler.NewWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}
