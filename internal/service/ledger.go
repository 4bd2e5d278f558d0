package service

import (
	"errors"
	"maps"
	"slices"

	"better-wordle-bot/internal/model"
)

// ErrDuplicateRecord is returned when a player already has a record for the day.
var ErrDuplicateRecord = errors.New("completion record already exists")

// Ledger is the append-mostly record of finished games,
// keyed by community, date key and player.
type Ledger struct {
	data model.Ledger
}

// NewLedger wraps data. A nil map starts an empty ledger.
func NewLedger(data model.Ledger) *Ledger {
	if data == nil {
		data = make(model.Ledger)
	}
	return &Ledger{data: data}
}

// Append stores rec. It never overwrites an existing record.
func (l *Ledger) Append(community int64, date string, player int64, rec model.CompletionRecord) error {
	days, ok := l.data[community]
	if !ok {
		days = make(map[string]model.DayResults)
		l.data[community] = days
	}
	day, ok := days[date]
	if !ok {
		day = make(model.DayResults)
		days[date] = day
	}
	if _, exists := day[player]; exists {
		return ErrDuplicateRecord
	}
	day[player] = rec
	return nil
}

// Get returns a copy of the records for one community and day.
func (l *Ledger) Get(community int64, date string) map[int64]model.CompletionRecord {
	out := make(map[int64]model.CompletionRecord)
	maps.Copy(out, l.data[community][date])
	return out
}

// Has reports whether player finished the day's puzzle in community.
func (l *Ledger) Has(community int64, date string, player int64) bool {
	_, ok := l.data[community][date][player]
	return ok
}

// Lookup returns the player's record for the day.
func (l *Ledger) Lookup(community int64, date string, player int64) (model.CompletionRecord, bool) {
	rec, ok := l.data[community][date][player]
	return rec, ok
}

// PlayedAnywhere reports whether player has a record for date in any community.
func (l *Ledger) PlayedAnywhere(date string, player int64) bool {
	for _, days := range l.data {
		if _, ok := days[date][player]; ok {
			return true
		}
	}
	return false
}

// Delete removes one record and prunes the day if it becomes empty.
// It reports whether a record was removed.
func (l *Ledger) Delete(community int64, date string, player int64) bool {
	days, ok := l.data[community]
	if !ok {
		return false
	}
	day, ok := days[date]
	if !ok {
		return false
	}
	if _, ok := day[player]; !ok {
		return false
	}
	delete(day, player)
	if len(day) == 0 {
		delete(days, date)
	}
	if len(days) == 0 {
		delete(l.data, community)
	}
	return true
}

// Players returns every player who has a record in community, sorted.
func (l *Ledger) Players(community int64) []int64 {
	seen := make(map[int64]struct{})
	for _, day := range l.data[community] {
		for player := range day {
			seen[player] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Communities returns every community with at least one record, sorted.
func (l *Ledger) Communities() []int64 {
	return slices.Sorted(maps.Keys(l.data))
}

// Usernames maps each player in community to the name on their latest record.
func (l *Ledger) Usernames(community int64) map[int64]string {
	days := l.data[community]
	names := make(map[int64]string)
	for _, date := range slices.Sorted(maps.Keys(days)) {
		for player, rec := range days[date] {
			if rec.Username != "" {
				names[player] = rec.Username
			}
		}
	}
	return names
}
