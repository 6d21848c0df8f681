// Package memory is an in-process store.Store implementation backing unit
// tests and single-node development. All methods are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

type recordKey struct {
	campaignID string
	contactID  string
	step       int
}

// Store holds everything in maps guarded by one mutex.
type Store struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	contacts  map[string]*domain.Contact
	senders   map[string][]domain.SenderIdentity
	records   map[recordKey]*domain.SendRecord
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		campaigns: make(map[string]*domain.Campaign),
		contacts:  make(map[string]*domain.Contact),
		senders:   make(map[string][]domain.SenderIdentity),
		records:   make(map[recordKey]*domain.SendRecord),
	}
}

// Bundle exposes the store through the interface composite.
func (s *Store) Bundle() store.Store {
	return store.Store{Campaigns: s, Contacts: s, Senders: s, Sends: s}
}

// AddCampaign seeds a campaign.
func (s *Store) AddCampaign(c domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = &c
}

// AddContact seeds a contact.
func (s *Store) AddContact(c domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[c.ID] = &c
}

// AddSender seeds a sender identity.
func (s *Store) AddSender(id domain.SenderIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders[id.CampaignID] = append(s.senders[id.CampaignID], id)
}

func (s *Store) ActiveCampaigns(_ context.Context) ([]domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Campaign
	for _, c := range s.campaigns {
		if c.Status == domain.CampaignActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Campaign(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ActiveContacts(_ context.Context, campaignID string, limit int) ([]domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Contact
	for _, c := range s.contacts {
		if c.CampaignID == campaignID && !c.IsTerminal() {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Contact(_ context.Context, id string) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) AdvanceStep(_ context.Context, contactID string, step int, sentAt time.Time, nextDueAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[contactID]
	if !ok {
		return store.ErrNotFound
	}
	c.CurrentStep = step
	t := sentAt
	c.LastContactedAt = &t
	c.NextDueAt = nextDueAt
	return nil
}

func (s *Store) SetNextDue(_ context.Context, contactID string, nextDueAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[contactID]
	if !ok {
		return store.ErrNotFound
	}
	c.NextDueAt = nextDueAt
	return nil
}

func (s *Store) SetEmailStatus(_ context.Context, contactID string, status domain.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[contactID]
	if !ok {
		return store.ErrNotFound
	}
	c.EmailStatus = status
	return nil
}

func (s *Store) CampaignSenders(_ context.Context, campaignID string) ([]domain.SenderIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.SenderIdentity(nil), s.senders[campaignID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) Sender(_ context.Context, id string) (*domain.SenderIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.senders {
		for _, sd := range list {
			if sd.ID == id {
				cp := sd
				return &cp, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

// SetSenderActive flips an identity's active flag, for tests exercising
// mid-tick deactivation.
func (s *Store) SetSenderActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for campaignID, list := range s.senders {
		for i := range list {
			if list[i].ID == id {
				s.senders[campaignID][i].IsActive = active
			}
		}
	}
}

func (s *Store) ClaimPending(_ context.Context, rec *domain.SendRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{rec.CampaignID, rec.ContactID, rec.StepNumber}
	if existing, ok := s.records[key]; ok {
		if existing.Status == domain.SendSent {
			return store.ErrDuplicateSend
		}
		existing.Status = domain.SendPending
		existing.SenderID = rec.SenderID
		existing.ErrorMessage = ""
		existing.UpdatedAt = time.Now().UTC()
		rec.Status = domain.SendPending
		return nil
	}
	now := time.Now().UTC()
	rec.Status = domain.SendPending
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := *rec
	s.records[key] = &cp
	return nil
}

func (s *Store) MarkSent(_ context.Context, campaignID, contactID string, step int, senderID, providerMessageID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey{campaignID, contactID, step}]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status == domain.SendSent {
		return store.ErrDuplicateSend
	}
	rec.Status = domain.SendSent
	rec.SenderID = senderID
	rec.ProviderMessageID = providerMessageID
	t := sentAt
	rec.SentAt = &t
	rec.ErrorMessage = ""
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) MarkFailed(_ context.Context, campaignID, contactID string, step int, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey{campaignID, contactID, step}]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != domain.SendPending {
		return nil
	}
	rec.Status = domain.SendFailed
	rec.ErrorMessage = errorMessage
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SentExists(_ context.Context, campaignID, contactID string, step int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey{campaignID, contactID, step}]
	return ok && rec.Status == domain.SendSent, nil
}

func (s *Store) History(_ context.Context, campaignID, contactID string) ([]domain.SendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SendRecord
	for key, rec := range s.records {
		if key.campaignID == campaignID && key.contactID == contactID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

func (s *Store) CountSenderSentToday(_ context.Context, senderID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countSent(day, func(r *domain.SendRecord) bool { return r.SenderID == senderID }), nil
}

func (s *Store) CountCampaignSentToday(_ context.Context, campaignID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countSent(day, func(r *domain.SendRecord) bool { return r.CampaignID == campaignID }), nil
}

func (s *Store) CountCampaignStartsToday(_ context.Context, campaignID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countSent(day, func(r *domain.SendRecord) bool {
		return r.CampaignID == campaignID && r.StepNumber == 1
	}), nil
}

func (s *Store) countSent(day time.Time, match func(*domain.SendRecord) bool) int {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	n := 0
	for _, rec := range s.records {
		if rec.Status != domain.SendSent || rec.SentAt == nil || !match(rec) {
			continue
		}
		if !rec.SentAt.Before(start) && rec.SentAt.Before(end) {
			n++
		}
	}
	return n
}
