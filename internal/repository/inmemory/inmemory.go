package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/repository"
)

var _ repository.Storage = (*InmemoryStorage)(nil)

// InmemoryStorage эмулирует атомарность внешнего хранилища: каждая операция
// выполняется под одним мьютексом, как одна операция над документом.
type InmemoryStorage struct {
	mu sync.Mutex

	users     map[string]models.User // по ID
	emails    map[string]string      // email -> ID
	links     map[string]*linkRow    // по URL
	codes     map[string]string      // код -> URL
	records   []models.Record
	sequences map[string]int64

	lastLinkSeq int64
}

type linkRow struct {
	link models.Link
	seq  int64 // порядок вставки, если created_at совпадает
}

func NewStorage() *InmemoryStorage {
	return &InmemoryStorage{
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		links:     make(map[string]*linkRow),
		codes:     make(map[string]string),
		sequences: make(map[string]int64),
	}
}

func (m *InmemoryStorage) UserCreate(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if user.ID == "" || user.Email == "" {
		return models.User{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[user.Email]; exists {
		return models.User{}, models.ErrDuplicate
	}
	if _, exists := m.users[user.ID]; exists {
		return models.User{}, models.ErrDuplicate
	}

	m.users[user.ID] = cloneUser(user)
	m.emails[user.Email] = user.ID
	return cloneUser(user), nil
}

func (m *InmemoryStorage) UserGetByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return models.User{}, models.ErrUnfound
	}
	return cloneUser(m.users[id]), nil
}

func (m *InmemoryStorage) UserGetByID(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrUnfound
	}
	return cloneUser(user), nil
}

func (m *InmemoryStorage) UserCompareAndSetLoginState(ctx context.Context, userID string, expectedVersion int64, next models.LoginState) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return false, models.ErrUnfound
	}
	if user.Login.Version != expectedVersion {
		return false, nil
	}

	next.Version = expectedVersion + 1
	user.Login = cloneLoginState(next)
	m.users[userID] = user
	return true, nil
}

func (m *InmemoryStorage) LinkCreate(ctx context.Context, link models.Link) (models.Link, error) {
	if err := ctx.Err(); err != nil {
		return models.Link{}, err
	}
	if link.URL == "" || link.Code == "" {
		return models.Link{}, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.URL]; exists {
		return models.Link{}, models.ErrDuplicate
	}
	if _, exists := m.codes[link.Code]; exists {
		return models.Link{}, models.ErrDuplicate
	}

	m.lastLinkSeq++
	m.links[link.URL] = &linkRow{link: link, seq: m.lastLinkSeq}
	m.codes[link.Code] = link.URL
	return link, nil
}

func (m *InmemoryStorage) LinkGetByURL(ctx context.Context, url string) (models.Link, error) {
	if err := ctx.Err(); err != nil {
		return models.Link{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.links[url]
	if !ok {
		return models.Link{}, models.ErrUnfound
	}
	return row.link, nil
}

func (m *InmemoryStorage) LinkGetByCode(ctx context.Context, code string) (models.Link, error) {
	if err := ctx.Err(); err != nil {
		return models.Link{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.codes[code]
	if !ok {
		return models.Link{}, models.ErrUnfound
	}
	return m.links[url].link, nil
}

func (m *InmemoryStorage) LinkSetCode(ctx context.Context, url, oldCode, newCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.links[url]
	if !ok {
		return models.ErrUnfound
	}
	if row.link.Code != oldCode {
		return models.ErrConflict
	}
	if _, taken := m.codes[newCode]; taken {
		return models.ErrDuplicate
	}

	delete(m.codes, oldCode)
	row.link.Code = newCode
	m.codes[newCode] = url
	return nil
}

func (m *InmemoryStorage) LinkUpdateURL(ctx context.Context, code, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	oldURL, ok := m.codes[code]
	if !ok {
		return models.ErrUnfound
	}
	if oldURL == url {
		return nil
	}
	if _, taken := m.links[url]; taken {
		return models.ErrDuplicate
	}

	row := m.links[oldURL]
	delete(m.links, oldURL)
	row.link.URL = url
	m.links[url] = row
	m.codes[code] = url
	return nil
}

func (m *InmemoryStorage) LinkDelete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.codes[code]
	if !ok {
		return models.ErrUnfound
	}
	delete(m.codes, code)
	delete(m.links, url)
	return nil
}

func (m *InmemoryStorage) LinkLatestCode(ctx context.Context, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *linkRow
	for _, row := range m.links {
		if _, ok := models.ParseCode(prefix, row.link.Code); !ok {
			continue
		}
		if latest == nil || newer(row, latest) {
			latest = row
		}
	}
	if latest == nil {
		return "", models.ErrUnfound
	}
	return latest.link.Code, nil
}

func newer(a, b *linkRow) bool {
	if !a.link.CreatedAt.Equal(b.link.CreatedAt) {
		return a.link.CreatedAt.After(b.link.CreatedAt)
	}
	return a.seq > b.seq
}

func (m *InmemoryStorage) RecordMaxID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for _, r := range m.records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID, nil
}

// RecordInsertMany ведет себя как неупорядоченная пакетная вставка:
// записи с уже существующим ID пропускаются, остальные сохраняются.
func (m *InmemoryStorage) RecordInsertMany(ctx context.Context, records []models.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[int64]struct{}, len(m.records))
	for _, r := range m.records {
		existing[r.ID] = struct{}{}
	}

	inserted := 0
	for _, r := range records {
		if _, dup := existing[r.ID]; dup {
			continue
		}
		existing[r.ID] = struct{}{}
		m.records = append(m.records, r)
		inserted++
	}

	if inserted < len(records) {
		return inserted, models.ErrDuplicate
	}
	return inserted, nil
}

func (m *InmemoryStorage) RecordCountByImport(ctx context.Context, importID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.records {
		if r.ImportID == importID {
			n++
		}
	}
	return n, nil
}

func (m *InmemoryStorage) RecordFindByContacts(ctx context.Context, contacts []string) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		want[c] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Record
	for _, r := range m.records {
		if _, ok := want[r.ContactNumber]; ok {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *InmemoryStorage) SequenceInit(ctx context.Context, name string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sequences[name]; !exists {
		m.sequences[name] = value
	}
	return nil
}

func (m *InmemoryStorage) SequenceAdvance(ctx context.Context, name string, n int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, models.ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sequences[name]
	if !ok {
		return 0, models.ErrUnfound
	}
	cur += n
	m.sequences[name] = cur
	return cur, nil
}

func (m *InmemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *InmemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]models.User)
	m.emails = make(map[string]string)
	m.links = make(map[string]*linkRow)
	m.codes = make(map[string]string)
	m.records = nil
	m.sequences = make(map[string]int64)
	return nil
}

func cloneUser(u models.User) models.User {
	u.Login = cloneLoginState(u.Login)
	return u
}

func cloneLoginState(s models.LoginState) models.LoginState {
	if s.LastFailedAt != nil {
		t := *s.LastFailedAt
		s.LastFailedAt = &t
	}
	if s.BlockedUntil != nil {
		t := *s.BlockedUntil
		s.BlockedUntil = &t
	}
	return s
}
