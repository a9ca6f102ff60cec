// Package memory keeps every record in process memory. It enforces the
// same unique constraints as the Postgres schema and is used for local
// runs without a database and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

// table is a map of records guarded by the owning store's mutex.
type table[T any] struct {
	rows  map[string]*T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) insert(id string, v *T) error {
	if _, ok := t.rows[id]; ok {
		return repository.ErrIDTaken
	}
	cp := *v
	t.rows[id] = &cp
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id string) (*T, error) {
	v, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (t *table[T]) replace(id string, v *T) error {
	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	cp := *v
	t.rows[id] = &cp
	return nil
}

func (t *table[T]) remove(id string) error {
	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// all returns copies in insertion order, filtered by keep when set.
func (t *table[T]) all(keep func(*T) bool) []*T {
	out := []*T{}
	for _, id := range t.order {
		v := t.rows[id]
		if keep != nil && !keep(v) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) ids() []string {
	return append([]string(nil), t.order...)
}

func (t *table[T]) exists(match func(*T) bool) bool {
	for _, v := range t.rows {
		if match(v) {
			return true
		}
	}
	return false
}

func duplicate(constraint string) error {
	return &repository.DuplicateError{Constraint: constraint, Err: repository.ErrDuplicate}
}

func stamp(ts *model.Timestamps, created bool) {
	now := time.Now().UTC()
	if created {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
}

// Store bundles all in-memory repositories behind one lock.
type Store struct {
	mu        sync.RWMutex
	patients  *table[model.Patient]
	doctors   *table[model.Doctor]
	hospitals *table[model.Hospital]
	timeSlots *table[model.TimeSlot]
	bookings  *table[model.Booking]
	auth      *table[model.Authentication]
}

func NewStore() *Store {
	return &Store{
		patients:  newTable[model.Patient](),
		doctors:   newTable[model.Doctor](),
		hospitals: newTable[model.Hospital](),
		timeSlots: newTable[model.TimeSlot](),
		bookings:  newTable[model.Booking](),
		auth:      newTable[model.Authentication](),
	}
}

func (s *Store) PingContext(context.Context) error { return nil }

func (s *Store) Patients() repository.PatientRepository   { return &patientRepository{s} }
func (s *Store) Doctors() repository.DoctorRepository     { return &doctorRepository{s} }
func (s *Store) Hospitals() repository.HospitalRepository { return &hospitalRepository{s} }
func (s *Store) TimeSlots() repository.TimeSlotRepository { return &timeSlotRepository{s} }
func (s *Store) Bookings() repository.BookingRepository   { return &bookingRepository{s} }

func (s *Store) Authentication() repository.AuthenticationRepository {
	return &authenticationRepository{s}
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Patients:       s.Patients(),
		Doctors:        s.Doctors(),
		Hospitals:      s.Hospitals(),
		TimeSlots:      s.TimeSlots(),
		Bookings:       s.Bookings(),
		Authentication: s.Authentication(),
	}
}

type patientRepository struct{ s *Store }

func (r *patientRepository) Create(_ context.Context, p *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.patients.has(p.PatientID) {
		return repository.ErrIDTaken
	}
	if r.s.patients.exists(func(o *model.Patient) bool { return o.CNIC == p.CNIC }) {
		return duplicate("patients_cnic_key")
	}
	stamp(&p.Timestamps, true)
	return r.s.patients.insert(p.PatientID, p)
}

func (r *patientRepository) Get(_ context.Context, id string) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.patients.get(id)
}

func (r *patientRepository) Update(_ context.Context, p *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.patients.exists(func(o *model.Patient) bool { return o.CNIC == p.CNIC && o.PatientID != p.PatientID }) {
		return duplicate("patients_cnic_key")
	}
	stamp(&p.Timestamps, false)
	return r.s.patients.replace(p.PatientID, p)
}

func (r *patientRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.patients.remove(id)
}

func (r *patientRepository) List(context.Context) ([]*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.patients.all(nil), nil
}

func (r *patientRepository) ListIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.patients.ids(), nil
}

func (r *patientRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.patients.rows), nil
}

type doctorRepository struct{ s *Store }

func (r *doctorRepository) Create(_ context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.doctors.has(d.DoctorID) {
		return repository.ErrIDTaken
	}
	if r.s.doctors.exists(func(o *model.Doctor) bool { return o.CNIC == d.CNIC }) {
		return duplicate("doctors_cnic_key")
	}
	stamp(&d.Timestamps, true)
	return r.s.doctors.insert(d.DoctorID, d)
}

func (r *doctorRepository) Get(_ context.Context, id string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.doctors.get(id)
}

func (r *doctorRepository) Update(_ context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.doctors.exists(func(o *model.Doctor) bool { return o.CNIC == d.CNIC && o.DoctorID != d.DoctorID }) {
		return duplicate("doctors_cnic_key")
	}
	stamp(&d.Timestamps, false)
	return r.s.doctors.replace(d.DoctorID, d)
}

func (r *doctorRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.doctors.remove(id)
}

func (r *doctorRepository) List(context.Context) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.doctors.all(nil), nil
}

func (r *doctorRepository) ListIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.doctors.ids(), nil
}

func (r *doctorRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.doctors.rows), nil
}

type hospitalRepository struct{ s *Store }

func (r *hospitalRepository) Create(_ context.Context, h *model.Hospital) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&h.Timestamps, true)
	return r.s.hospitals.insert(h.HospitalID, h)
}

func (r *hospitalRepository) Get(_ context.Context, id string) (*model.Hospital, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hospitals.get(id)
}

func (r *hospitalRepository) Update(_ context.Context, h *model.Hospital) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&h.Timestamps, false)
	return r.s.hospitals.replace(h.HospitalID, h)
}

func (r *hospitalRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.hospitals.remove(id)
}

func (r *hospitalRepository) List(context.Context) ([]*model.Hospital, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hospitals.all(nil), nil
}

func (r *hospitalRepository) ListIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hospitals.ids(), nil
}

func (r *hospitalRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.hospitals.rows), nil
}

type timeSlotRepository struct{ s *Store }

func (r *timeSlotRepository) Create(_ context.Context, t *model.TimeSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&t.Timestamps, true)
	return r.s.timeSlots.insert(t.TimeSlotID, t)
}

func (r *timeSlotRepository) Get(_ context.Context, id string) (*model.TimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.timeSlots.get(id)
}

func (r *timeSlotRepository) Update(_ context.Context, t *model.TimeSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&t.Timestamps, false)
	return r.s.timeSlots.replace(t.TimeSlotID, t)
}

func (r *timeSlotRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.timeSlots.remove(id)
}

func (r *timeSlotRepository) List(_ context.Context, filter model.TimeSlotFilter) ([]*model.TimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.timeSlots.all(func(t *model.TimeSlot) bool {
		return filter.DoctorID == "" || t.DoctorID == filter.DoctorID
	}), nil
}

func (r *timeSlotRepository) ListIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.timeSlots.ids(), nil
}

func (r *timeSlotRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.timeSlots.rows), nil
}

type bookingRepository struct{ s *Store }

func (r *bookingRepository) conflicts(b *model.Booking, doctorID string, date model.Date, start, end time.Time, excludeID string) bool {
	return b.Confirmed() && b.DoctorID == doctorID && b.Date.Equal(date.Time) &&
		b.BookingID != excludeID && b.Overlaps(start, end)
}

// sameSlot mirrors the partial unique index on confirmed bookings.
func sameSlot(a, b *model.Booking) bool {
	return a.Confirmed() && b.Confirmed() && a.BookingID != b.BookingID &&
		a.DoctorID == b.DoctorID && a.Date.Equal(b.Date.Time) && a.StartTime.Equal(b.StartTime)
}

func (r *bookingRepository) Create(_ context.Context, b *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.bookings.has(b.BookingID) {
		return repository.ErrIDTaken
	}
	if b.Confirmed() && r.s.bookings.exists(func(o *model.Booking) bool {
		return r.conflicts(o, b.DoctorID, b.Date, b.StartTime, b.EndTime, "") || sameSlot(o, b)
	}) {
		return repository.ErrSlotTaken
	}
	stamp(&b.Timestamps, true)
	return r.s.bookings.insert(b.BookingID, b)
}

func (r *bookingRepository) Get(_ context.Context, id string) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.bookings.get(id)
}

func (r *bookingRepository) Update(_ context.Context, b *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.bookings.has(b.BookingID) {
		return repository.ErrNotFound
	}
	if b.Confirmed() && r.s.bookings.exists(func(o *model.Booking) bool {
		return r.conflicts(o, b.DoctorID, b.Date, b.StartTime, b.EndTime, b.BookingID) || sameSlot(o, b)
	}) {
		return repository.ErrSlotTaken
	}
	stamp(&b.Timestamps, false)
	return r.s.bookings.replace(b.BookingID, b)
}

func (r *bookingRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.bookings.remove(id)
}

func (r *bookingRepository) List(_ context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.bookings.all(func(b *model.Booking) bool {
		return (filter.DoctorID == "" || b.DoctorID == filter.DoctorID) &&
			(filter.PatientID == "" || b.PatientID == filter.PatientID) &&
			(filter.Date == nil || b.Date.Equal(filter.Date.Time))
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r *bookingRepository) FindConflicting(_ context.Context, doctorID string, date model.Date, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.bookings.all(func(b *model.Booking) bool {
		return r.conflicts(b, doctorID, date, start, end, excludeID)
	}), nil
}

func (r *bookingRepository) ListIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.bookings.ids(), nil
}

func (r *bookingRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.bookings.rows), nil
}

type authenticationRepository struct{ s *Store }

func (r *authenticationRepository) unique(a *model.Authentication) error {
	email := strings.ToLower(a.Email)
	if r.s.auth.exists(func(o *model.Authentication) bool {
		return o.UserID != a.UserID && strings.ToLower(o.Email) == email
	}) {
		return duplicate("authentication_email_key")
	}
	if r.s.auth.exists(func(o *model.Authentication) bool {
		return o.UserID != a.UserID && o.PhoneNumber == a.PhoneNumber
	}) {
		return duplicate("authentication_phone_number_key")
	}
	return nil
}

func (r *authenticationRepository) Create(_ context.Context, a *model.Authentication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.auth.has(a.UserID) {
		return repository.ErrIDTaken
	}
	if err := r.unique(a); err != nil {
		return err
	}
	stamp(&a.Timestamps, true)
	return r.s.auth.insert(a.UserID, a)
}

func (r *authenticationRepository) Get(_ context.Context, userID string) (*model.Authentication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.auth.get(userID)
}

func (r *authenticationRepository) find(match func(*model.Authentication) bool) (*model.Authentication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := r.s.auth.all(match)
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

func (r *authenticationRepository) GetByEmail(_ context.Context, email string) (*model.Authentication, error) {
	return r.find(func(a *model.Authentication) bool { return strings.EqualFold(a.Email, email) })
}

func (r *authenticationRepository) GetByPhone(_ context.Context, phone string) (*model.Authentication, error) {
	return r.find(func(a *model.Authentication) bool { return a.PhoneNumber == phone })
}

func (r *authenticationRepository) Update(_ context.Context, a *model.Authentication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.auth.has(a.UserID) {
		return repository.ErrNotFound
	}
	if err := r.unique(a); err != nil {
		return err
	}
	stamp(&a.Timestamps, false)
	return r.s.auth.replace(a.UserID, a)
}

func (r *authenticationRepository) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.auth.remove(userID)
}

func (r *authenticationRepository) List(context.Context) ([]*model.Authentication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.auth.all(nil), nil
}
