package slackapi

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"fieldreport/internal/report"
)

type UserCount struct {
	UserID string
	Name   string
	Count  int
}

type DayCount struct {
	Day   string
	Count int
}

// Activity is the per-user and per-day message breakdown of a run.
type Activity struct {
	Users []UserCount
	Days  []DayCount
	Total int
}

// ComputeActivity counts messages per user (count desc, then name) and per
// calendar day in loc (ascending). Messages without a user still count
// towards their day.
func (c *Client) ComputeActivity(ctx context.Context, msgs []Message, loc *time.Location) Activity {
	if loc == nil {
		loc = time.Local
	}
	userCounts := make(map[string]int)
	dayCounts := make(map[string]int)
	for _, m := range msgs {
		if m.User != "" {
			userCounts[m.User]++
		}
		if at, ok := parseTS(m.TS); ok {
			dayCounts[at.In(loc).Format("2006-01-02")]++
		}
	}

	var a Activity
	a.Total = len(msgs)
	for id, n := range userCounts {
		a.Users = append(a.Users, UserCount{UserID: id, Name: c.UserName(ctx, id), Count: n})
	}
	slices.SortFunc(a.Users, func(x, y UserCount) int {
		if x.Count != y.Count {
			return cmp.Compare(y.Count, x.Count)
		}
		if n := strings.Compare(x.Name, y.Name); n != 0 {
			return n
		}
		return strings.Compare(x.UserID, y.UserID)
	})
	for day, n := range dayCounts {
		a.Days = append(a.Days, DayCount{Day: day, Count: n})
	}
	slices.SortFunc(a.Days, func(x, y DayCount) int { return strings.Compare(x.Day, y.Day) })
	return a
}

// parseTS reads a Slack "seconds.micros" timestamp.
func parseTS(ts string) (time.Time, bool) {
	sec, frac, _ := strings.Cut(strings.TrimSpace(ts), ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	var nanos int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		f, err := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		nanos = f
	}
	return time.Unix(s, nanos), true
}

const activityTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<title>Slack Activity Report</title>
<style>
  body { font-family: Arial, sans-serif; margin: 40px; background: #f7f7f7; color: #333; }
  h1 { text-align: center; }
  table { width: 80%; margin: 20px auto; border-collapse: collapse; }
  th, td { padding: 8px 12px; border: 1px solid #ddd; text-align: left; }
  th { background: #333; color: #fff; }
  tr:nth-child(even) { background: #f2f2f2; }
  .chart { display: flex; align-items: flex-end; height: 220px; margin: 40px auto; width: 80%; }
  .bar { flex: 1; margin: 0 4px; background: #4e73df; position: relative; }
  .bar span { position: absolute; bottom: 100%; left: 0; width: 100%; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<h1>Slack Activity Report</h1>
<p>{{ total }} messages</p>
<h2>Messages by User</h2>
<table>
  <tr><th>User</th><th>Messages</th></tr>
{% for u in users %}  <tr><td>{{ u.name | escape }}</td><td>{{ u.count }}</td></tr>
{% endfor %}</table>
<h2>Messages by Day</h2>
<table>
  <tr><th>Day</th><th>Messages</th></tr>
{% for d in days %}  <tr><td>{{ d.day }}</td><td>{{ d.count }}</td></tr>
{% endfor %}</table>
<div class="chart">
{% for d in days %}  <div class="bar" style="height: {{ d.height }}px"><span>{{ d.day }}</span></div>
{% endfor %}</div>
</body>
</html>
`

// maxBarHeight bounds the tallest day bar in pixels.
const maxBarHeight = 200

func RenderActivityHTML(a Activity) (string, error) {
	peak := 0
	for _, d := range a.Days {
		peak = max(peak, d.Count)
	}

	users := make([]map[string]any, 0, len(a.Users))
	for _, u := range a.Users {
		users = append(users, map[string]any{"name": u.Name, "count": u.Count})
	}
	days := make([]map[string]any, 0, len(a.Days))
	for _, d := range a.Days {
		height := 0
		if peak > 0 {
			height = d.Count * maxBarHeight / peak
		}
		days = append(days, map[string]any{"day": d.Day, "count": d.Count, "height": height})
	}

	return report.RenderTemplate(activityTemplate, map[string]any{
		"total": a.Total,
		"users": users,
		"days":  days,
	})
}
