package app

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

var startTime = time.Now()

var (
	statusMu    sync.RWMutex
	statusFuncs = map[string]func() map[string]interface{}{}
)

// RegisterStatus registers a named status section provider. Packages call
// this at load time so the status page can report on them without the app
// package importing them.
func RegisterStatus(name string, fn func() map[string]interface{}) {
	statusMu.Lock()
	statusFuncs[name] = fn
	statusMu.Unlock()
}

// StatusResponse is the full status report
type StatusResponse struct {
	Uptime   string                            `json:"uptime"`
	Sections map[string]map[string]interface{} `json:"sections"`
	SysLog   []*SysLogEntry                    `json:"syslog"`
	APILog   []*APILogEntry                    `json:"apilog"`
}

func buildStatus() StatusResponse {
	statusMu.RLock()
	sections := make(map[string]map[string]interface{}, len(statusFuncs))
	for name, fn := range statusFuncs {
		sections[name] = fn()
	}
	statusMu.RUnlock()

	return StatusResponse{
		Uptime:   formatUptime(time.Since(startTime)),
		Sections: sections,
		SysLog:   GetSysLog(),
		APILog:   GetAPILog(),
	}
}

// StatusHandler serves /status
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := buildStatus()

	if WantsJSON(r) {
		RespondJSON(w, status)
		return
	}

	Respond(w, r, Response{
		Title:       "Status",
		Description: "Systeemstatus",
		HTML:        renderStatusHTML(status),
	})
}

func renderStatusHTML(status StatusResponse) string {
	var sb strings.Builder

	sb.WriteString(`<h2>Status</h2>`)
	sb.WriteString(fmt.Sprintf(`<p class="text-muted">Uptime: %s</p>`, status.Uptime))

	names := make([]string, 0, len(status.Sections))
	for name := range status.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sb.WriteString(fmt.Sprintf(`<div class="card"><h3>%s</h3><table>`, name))
		section := status.Sections[name]
		keys := make([]string, 0, len(section))
		for k := range section {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%v</td></tr>`, k, section[k]))
		}
		sb.WriteString(`</table></div>`)
	}

	sb.WriteString(`<div class="card"><h3>Log</h3><pre>`)
	for i, e := range status.SysLog {
		if i >= 50 {
			break
		}
		sb.WriteString(fmt.Sprintf("%s [%s] %s\n", e.Time.Format("15:04:05"), e.Package, e.Message))
	}
	sb.WriteString(`</pre></div>`)

	sb.WriteString(`<div class="card"><h3>API calls</h3><pre>`)
	for i, e := range status.APILog {
		if i >= 20 {
			break
		}
		line := fmt.Sprintf("%s %s %s %d %s", e.Time.Format("15:04:05"), e.Service, e.Method, e.Status, e.Duration)
		if e.Error != "" {
			line += " error: " + e.Error
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(`</pre></div>`)

	return sb.String()
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
