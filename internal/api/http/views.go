package httpapi

import (
	"time"

	"github.com/nkoval/weatherbar/internal/units"
	"github.com/nkoval/weatherbar/internal/weather"
)

// snapshotView is the rendered form of a snapshot: every measurement already
// formatted with the caller's unit preferences so the display just prints.
type snapshotView struct {
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Condition   string       `json:"condition"`
	Icon        string       `json:"icon"`
	IsNight     bool         `json:"isNight"`
	Temp        string       `json:"temp"`
	Details     []detailView `json:"details"`
	Daily       []entryView  `json:"daily"`
	Hourly      []entryView  `json:"hourly"`
	Provider    string       `json:"provider"`
	FetchedAt   time.Time    `json:"fetchedAt"`
}

type detailView struct {
	ID   weather.DetailID `json:"id"`
	Text string           `json:"text"`
}

type entryView struct {
	Time         time.Time `json:"time"`
	Icon         string    `json:"icon"`
	Temp         string    `json:"temp,omitempty"`
	TempMin      string    `json:"tempMin,omitempty"`
	TempMax      string    `json:"tempMax,omitempty"`
	PrecipChance string    `json:"precipChance"`
}

func renderSnapshot(snap *weather.Snapshot, prefs units.Prefs) snapshotView {
	view := snapshotView{
		Location:    snap.Location.Name(),
		Description: snap.Location.Description(),
		Condition:   string(snap.Condition),
		Icon:        snap.IconName,
		IsNight:     snap.IsNight,
		Temp:        snap.Temp.Display(prefs),
		Provider:    snap.ProviderName,
		FetchedAt:   snap.FetchedAt,
	}

	for _, id := range weather.DetailIDs() {
		if text, ok := weather.DisplayDetail(snap, id, prefs, true); ok {
			view.Details = append(view.Details, detailView{ID: id, Text: text})
		}
	}
	view.Daily = renderEntries(snap.Daily, prefs)
	view.Hourly = renderEntries(snap.Hourly, prefs)
	return view
}

func renderEntries(entries []weather.ForecastEntry, prefs units.Prefs) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		v := entryView{
			Time:         e.Time,
			Icon:         e.IconName,
			PrecipChance: e.PrecipChance.Display(prefs),
		}
		if e.Temp != nil {
			v.Temp = e.Temp.Display(prefs)
		}
		if e.TempMin != nil {
			v.TempMin = e.TempMin.Display(prefs)
		}
		if e.TempMax != nil {
			v.TempMax = e.TempMax.Display(prefs)
		}
		out[i] = v
	}
	return out
}
