package dataset

import (
	"sort"

	"leadflow-go/internal/logger"
	"leadflow-go/internal/types"
)

// Rate is a qualified/total count for one slice of the data.
type Rate struct {
	Total     int     `json:"total"`
	Qualified int     `json:"qualified"`
	Rate      float64 `json:"rate"`
}

type DatasetSummary struct {
	TotalLeads      int             `json:"total_leads"`
	Qualified       int             `json:"qualified"`
	QualifiedRate   float64         `json:"qualified_rate"`
	ByServiceType   map[string]Rate `json:"by_service_type"`
	BySourceChannel map[string]Rate `json:"by_source_channel"`
	TopChannels     []string        `json:"top_channels"`
}

// Summarize produces qualification rates per service type and channel.
func Summarize(h Historical) DatasetSummary {
	log := logger.New().WithField("component", "dataset.summary")
	ds := DatasetSummary{
		TotalLeads:      len(h.Leads),
		ByServiceType:   map[string]Rate{},
		BySourceChannel: map[string]Rate{},
	}
	for i, l := range h.Leads {
		q := h.Labels[i]
		if q {
			ds.Qualified++
		}
		bump(ds.ByServiceType, field(l, types.FieldServiceType), q)
		bump(ds.BySourceChannel, field(l, types.FieldSourceChannel), q)
	}
	if ds.TotalLeads > 0 {
		ds.QualifiedRate = float64(ds.Qualified) / float64(ds.TotalLeads)
	}

	type cr struct {
		channel string
		rate    float64
	}
	var arr []cr
	for c, r := range ds.BySourceChannel {
		arr = append(arr, cr{c, r.Rate})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].rate != arr[j].rate {
			return arr[i].rate > arr[j].rate
		}
		return arr[i].channel < arr[j].channel
	})
	for i := 0; i < len(arr) && i < 3; i++ {
		ds.TopChannels = append(ds.TopChannels, arr[i].channel)
	}

	log.WithFields(map[string]interface{}{
		"total_leads":    ds.TotalLeads,
		"qualified_rate": ds.QualifiedRate,
		"service_types":  len(ds.ByServiceType),
		"channels":       len(ds.BySourceChannel),
	}).Info("dataset summarization complete")
	return ds
}

func field(l types.LeadRecord, name string) string {
	v, ok := l.Text(name)
	if !ok {
		return "unknown"
	}
	return v
}

func bump(m map[string]Rate, key string, qualified bool) {
	r := m[key]
	r.Total++
	if qualified {
		r.Qualified++
	}
	r.Rate = float64(r.Qualified) / float64(r.Total)
	m[key] = r
}
