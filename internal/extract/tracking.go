package extract

import (
	"strconv"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

const (
	timelineItemSelector     = `.package-timeline__item`
	timelineActiveClass      = `package-timeline__item--active`
	packageInfoSelector      = `.package-info-list li`
	packageInfoTitleSelector = `.package-info-list-title`
	packageInfoBodySelector  = `.package-info-list-content`
	courierLinkSelector      = `.package-info-list-content a[href*="/couriers/"]`
	daysOnRouteSelector      = `.package-info-delivery-days-value`
)

func collapsedText(root dom.Node, selector string) string {
	node, ok := dom.First(root, selector)
	if !ok {
		return ""
	}
	text, err := node.Text()
	if err != nil {
		return ""
	}
	return dom.CollapseSpace(text)
}

// Tracking reads a parcel page into a record. TrackingNumber holds the code
// shown on the page, "" when absent; SourceURL is left to the caller.
func Tracking(root dom.Node, sink Sink) models.TrackingRecord {
	sink = orDiscard(sink)

	rec := models.TrackingRecord{
		TrackingNumber:    collapsedText(root, `.package-status-info-code`),
		Status:            collapsedText(root, `.package-status-header`),
		StatusDescription: collapsedText(root, `.package-status-info-box`),
		Couriers:          []string{},
	}
	if rec.Status == "" {
		sink.Record(Event{Field: "tracking.status", Selector: `.package-status-header`, Outcome: OutcomeAbsent})
	}

	packageInfo(root, &rec)

	if days := collapsedText(root, daysOnRouteSelector); days != "" {
		rec.DaysOnRoute = leadingInt(days)
	}

	rec.Timeline = Timeline(root, sink)
	return rec
}

func packageInfo(root dom.Node, rec *models.TrackingRecord) {
	items, err := root.All(packageInfoSelector)
	if err != nil {
		return
	}

	for _, item := range items {
		title := collapsedText(item, packageInfoTitleSelector)
		content := collapsedText(item, packageInfoBodySelector)
		if title == "" || content == "" {
			continue
		}

		switch {
		case strings.Contains(title, "remitente") || strings.Contains(title, "Shipper"):
			rec.Origin = strings.TrimSpace(strings.Replace(content, "Cambiar", "", 1))
		case strings.Contains(title, "Servicio") || strings.Contains(title, "Delivery Service"):
			for _, name := range dom.Texts(item, courierLinkSelector) {
				if name = dom.CollapseSpace(name); name != "" {
					rec.Couriers = append(rec.Couriers, name)
				}
			}
		case strings.Contains(title, "receptor") || strings.Contains(title, "Receiver"):
			rec.Destination = strings.TrimSpace(strings.Replace(content, "Cambiar", "", 1))
		case strings.Contains(title, "Peso") || strings.Contains(title, "Weight"):
			rec.Weight = content
		}
	}
}

// leadingInt parses the leading digits of s, 0 when there are none.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Timeline returns the checkpoints in page order. Items without a date or title are dropped.
func Timeline(root dom.Node, sink Sink) []models.TimelineEvent {
	sink = orDiscard(sink)
	events := []models.TimelineEvent{}

	items, err := root.All(timelineItemSelector)
	if err != nil {
		sink.Record(Event{Field: "tracking.timeline", Selector: timelineItemSelector, Outcome: OutcomeError, Detail: err.Error()})
		return events
	}

	for _, item := range items {
		ev := models.TimelineEvent{
			Date:     collapsedText(item, `.package-timeline__time`),
			Courier:  collapsedText(item, `.package-timeline__post a`),
			Title:    collapsedText(item, `.package-timeline__title`),
			Location: collapsedText(item, `.package-timeline__description`),
			IsActive: dom.HasClass(item, timelineActiveClass),
		}
		if ev.Date == "" || ev.Title == "" {
			continue
		}
		events = append(events, ev)
	}

	outcome := OutcomeHit
	if len(events) == 0 {
		outcome = OutcomeAbsent
	}
	sink.Record(Event{Field: "tracking.timeline", Selector: timelineItemSelector, Outcome: outcome})
	return events
}
