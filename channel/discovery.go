package channel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xaxy55/unitree_sdk2_go/protocol"
)

// leaseFactor is the number of announce intervals a participant stays known
// without announcing.
const leaseFactor = 3

// Participant is a remote session seen through its announcements.
type Participant struct {
	GUID          uuid.UUID
	Name          string
	Interface     string
	Publications  []string
	Subscriptions []string
	LastSeen      time.Time
}

type discovery struct {
	interval time.Duration
	codec    protocol.CborTranscoder

	mu    sync.Mutex
	peers map[uuid.UUID]Participant
}

func newDiscovery(interval time.Duration) *discovery {
	return &discovery{
		interval: interval,
		peers:    make(map[uuid.UUID]Participant),
	}
}

func (d *discovery) lease() time.Duration {
	return leaseFactor * d.interval
}

// observe records an announcement and reports whether the participant is new.
func (d *discovery) observe(a *protocol.Announcement, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, known := d.peers[a.GUID]
	d.peers[a.GUID] = Participant{
		GUID:          a.GUID,
		Name:          a.Name,
		Interface:     a.Interface,
		Publications:  a.Publications,
		Subscriptions: a.Subscriptions,
		LastSeen:      now,
	}
	return !known
}

func (d *discovery) remove(guid uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.peers[guid]
	delete(d.peers, guid)
	return ok
}

// expire drops participants whose lease ran out and returns them.
func (d *discovery) expire(now time.Time) []Participant {
	if d.interval <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var gone []Participant
	for guid, p := range d.peers {
		if now.Sub(p.LastSeen) > d.lease() {
			gone = append(gone, p)
			delete(d.peers, guid)
		}
	}
	return gone
}

func (d *discovery) snapshot(now time.Time) []Participant {
	d.expire(now)
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Participant, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, p)
	}
	return out
}

// announcement describes this session.
func (s *Session) announcement() *protocol.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := &protocol.Announcement{
		GUID:      s.guid,
		Name:      s.name,
		Interface: s.cfg.Interface,
	}
	for topic := range s.pubs {
		a.Publications = append(a.Publications, topic)
	}
	for topic := range s.subs {
		a.Subscriptions = append(a.Subscriptions, topic)
	}
	sort.Strings(a.Publications)
	sort.Strings(a.Subscriptions)
	return a
}

func (s *Session) announce() {
	payload, err := s.discovery.codec.Encode(s.announcement())
	if err != nil {
		s.logger.Warn("encode announcement", "error", err)
		return
	}
	if err := s.sendControl(protocol.KindAnnounce, payload); err != nil {
		s.logger.Debug("announce not sent", "error", err)
	}
}

func (s *Session) announceLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.discovery.interval)
	defer ticker.Stop()

	s.announce()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.announce()
			for _, p := range s.discovery.expire(now) {
				s.logger.Info("participant lease expired", "name", p.Name, "guid", p.GUID)
			}
		}
	}
}

func (s *Session) handleAnnounce(f *protocol.Frame) {
	a, err := s.discovery.codec.Decode(f.Payload)
	if err != nil {
		s.malformed.Add(1)
		s.logger.Debug("dropping malformed announcement", "error", err)
		return
	}
	if a.GUID != f.GUID {
		s.malformed.Add(1)
		return
	}
	if s.discovery.observe(a, time.Now()) {
		s.logger.Info("participant joined", "name", a.Name, "guid", a.GUID)
	}
}
