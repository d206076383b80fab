package meter

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/logging"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

// Manager holds every configured Meter and routes incoming telegrams to
// whichever of them matches. AddMeter and RemoveAll take the write lock;
// Dispatch, ForEach and the snapshot helpers take a read lock, and each
// Meter guards its own values with its own mutex.
type Manager struct {
	mu     sync.RWMutex
	meters []*Meter
}

// NewManager returns an empty Manager ready to accept meters.
func NewManager() *Manager {
	return &Manager{}
}

// AddMeter appends m to the managed set. Meters are matched against
// incoming telegrams in the order they were added; Dispatch updates
// every meter whose address expressions match, not only the first.
func (mgr *Manager) AddMeter(m *Meter) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m.index = len(mgr.meters)
	mgr.meters = append(mgr.meters, m)
}

// RemoveAll drops every configured meter.
func (mgr *Manager) RemoveAll() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.meters = nil
}

// ForEach calls fn once per configured meter, in registration order.
// fn must not call back into Manager.
func (mgr *Manager) ForEach(fn func(*Meter)) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	for _, m := range mgr.meters {
		fn(m)
	}
}

// ByName returns the meter registered under the given name, if any.
func (mgr *Manager) ByName(name string) (*Meter, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	for _, m := range mgr.meters {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// HasAllReceivedATelegram reports whether every configured meter has
// been updated at least once, mirroring
// MeterManagerImplementation::hasAllMetersReceivedATelegram.
func (mgr *Manager) HasAllReceivedATelegram() bool {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	if len(mgr.meters) == 0 {
		return false
	}
	for _, m := range mgr.meters {
		if m.NumUpdates() == 0 {
			return false
		}
	}
	return true
}

// KeyForAddress returns the decryption key of the first configured meter
// whose address expression matches the given data-link-layer address,
// letting a caller fully decrypt+parse a raw frame with the right key
// before calling Dispatch.
func (mgr *Manager) KeyForAddress(idString string, mfct uint16, version, media byte) ([]byte, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	for _, m := range mgr.meters {
		if m.Expression.Match(idString, mfct, version, media) {
			return m.Key, true
		}
	}
	return nil, false
}

// Dispatch routes an already-decoded telegram (decryption happens
// earlier, using whichever meter's key the caller picked for Parse) to
// every meter whose address expression matches id/mfct/version/media.
// It returns the meters that were actually updated.
//
// A telegram the matching meter's driver could not fully decode (or
// that fails decryption) is reported once per (meter, reason)
// signature via logging.WarnOnce rather than aborting the dispatch:
// the responsibility the telegram package itself stays silent about.
func (mgr *Manager) Dispatch(tg *telegram.Telegram) []*Meter {
	mgr.mu.RLock()
	candidates := make([]*Meter, 0, 1)
	for _, m := range mgr.meters {
		if m.Expression.Match(tg.DLL.IdString(), tg.DLL.Mfct, tg.DLL.Version, tg.DLL.Media) {
			candidates = append(candidates, m)
		}
	}
	mgr.mu.RUnlock()

	var updated []*Meter
	for _, m := range candidates {
		if tg.Problem != nil {
			logging.WarnOnce(
				fmt.Sprintf("%s-%s", m.Name, tg.Problem.Reason),
				"telegram not understood",
				zap.String("meter", m.Name),
				zap.String("reason", tg.Problem.Reason),
			)
			continue
		}
		if err := m.ApplyTelegram(tg); err != nil {
			logging.WarnOnce(
				fmt.Sprintf("%s-apply-error", m.Name),
				"failed to apply telegram",
				zap.String("meter", m.Name),
				zap.Error(err),
			)
			continue
		}
		updated = append(updated, m)
	}
	return updated
}
