package offer

import (
	"errors"
	"sync"
)

var (
	ErrReadOnly  = errors.New("offer: field is read-only")
	ErrUnsettled = errors.New("offer: watchers did not settle")
)

const maxSettleRounds = 8

// WatchFunc вызывается после изменения поля внутри той же транзакции
type WatchFunc func(tx *Tx)

// Store состояние формы: значения, показанные ошибки, признаки read-only.
// Любое изменение идёт через Update и вместе с реакциями наблюдателей
// применяется атомарно: до возврата из Update никто не увидит промежуточного состояния.
type Store struct {
	mu       sync.Mutex
	schema   *Schema
	values   Values
	errs     map[Field]string
	readOnly map[Field]bool
	watchers map[Field][]WatchFunc
}

func NewStore(schema *Schema, defaults Values) *Store {
	return &Store{
		schema:   schema,
		values:   defaults,
		errs:     map[Field]string{},
		readOnly: map[Field]bool{},
		watchers: map[Field][]WatchFunc{},
	}
}

func (s *Store) Watch(f Field, fn WatchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[f] = append(s.watchers[f], fn)
}

// Update выполняет fn и затем всех наблюдателей изменённых полей, по очереди,
// пока изменения не прекратятся.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s}
	err := fn(tx)
	if serr := s.settle(tx); serr != nil {
		return serr
	}
	return err
}

func (s *Store) settle(tx *Tx) error {
	for round := 0; len(tx.changed) > 0; round++ {
		if round == maxSettleRounds {
			return ErrUnsettled
		}
		changed := tx.changed
		tx.changed = nil
		for _, f := range changed {
			for _, w := range s.watchers[f] {
				w(tx)
			}
		}
	}
	return nil
}

func (s *Store) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Errors ошибки, показанные пользователю (по полям, которые уже проверялись)
func (s *Store) Errors() map[Field]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Field]string, len(s.errs))
	for f, m := range s.errs {
		out[f] = m
	}
	return out
}

// IsValid проверка всей формы, независимо от показанных ошибок
func (s *Store) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.schema.Validate(s.values)) == 0
}

// Snapshot согласованный срез состояния для отрисовки
type Snapshot struct {
	Values   Values
	Errors   map[Field]string
	ReadOnly map[Field]bool
	Valid    bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Values:   s.values,
		Errors:   make(map[Field]string, len(s.errs)),
		ReadOnly: make(map[Field]bool, len(s.readOnly)),
		Valid:    len(s.schema.Validate(s.values)) == 0,
	}
	for f, m := range s.errs {
		snap.Errors[f] = m
	}
	for f, ro := range s.readOnly {
		snap.ReadOnly[f] = ro
	}
	return snap
}

func (s *Store) ReadOnly(f Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly[f]
}

// Tx доступ к состоянию внутри Update. Вне Update не использовать.
type Tx struct {
	s       *Store
	changed []Field
}

func (tx *Tx) Values() Values { return tx.s.values }

func (tx *Tx) SetINN(v string) error {
	return tx.set(FieldINN, func(vals *Values) { vals.INN = v })
}

func (tx *Tx) SetKPP(v string) error {
	return tx.set(FieldKPP, func(vals *Values) { vals.KPP = v })
}

func (tx *Tx) SetRequiredPayments(v bool) error {
	return tx.set(FieldRequiredPayments, func(vals *Values) { vals.RequiredPayments = v })
}

func (tx *Tx) SetBusinessStatus(t PaymentType) error {
	return tx.set(FieldBusinessStatus, func(vals *Values) { vals.BusinessStatus = t })
}

// set пользовательское изменение: учитывает read-only и сразу проверяет поле
func (tx *Tx) set(f Field, apply func(*Values)) error {
	if tx.s.readOnly[f] {
		return ErrReadOnly
	}
	next := tx.s.values
	apply(&next)
	tx.mark(tx.s.values.diff(next)...)
	tx.s.values = next
	tx.Trigger(f)
	return nil
}

// Reset программная замена значений: read-only не учитывается,
// показанные ошибки сбрасываются, проверка не запускается.
func (tx *Tx) Reset(v Values) {
	tx.mark(tx.s.values.diff(v)...)
	tx.s.values = v
	tx.s.errs = map[Field]string{}
}

// Trigger проверяет форму и обновляет ошибки указанных полей (всех, если не указаны)
func (tx *Tx) Trigger(fields ...Field) {
	if len(fields) == 0 {
		fields = []Field{FieldINN, FieldKPP, FieldRequiredPayments, FieldBusinessStatus}
	}
	res := tx.s.schema.Validate(tx.s.values)
	for _, f := range fields {
		if msg, ok := res[f]; ok {
			tx.s.errs[f] = msg
		} else {
			delete(tx.s.errs, f)
		}
	}
}

func (tx *Tx) SetReadOnly(f Field, ro bool) {
	tx.s.readOnly[f] = ro
}

// Touch уведомить наблюдателей поля без изменения значения
func (tx *Tx) Touch(f Field) { tx.mark(f) }

func (tx *Tx) mark(fields ...Field) {
	for _, f := range fields {
		seen := false
		for _, c := range tx.changed {
			if c == f {
				seen = true
				break
			}
		}
		if !seen {
			tx.changed = append(tx.changed, f)
		}
	}
}
