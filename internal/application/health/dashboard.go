package health

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var depLabels = map[string]string{
	"database":   "Ledger Database",
	"redis":      "Redis Cache",
	"price_feed": "Price Feed",
}

// RenderDashboardHTML returns the HTML status page for GET / with the collected data embedded.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	jsonStr := string(b)
	// embedded in a JS template literal
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	lastMethod, lastPath, lastIP := "-", "-", "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastMethod = v
		}
		if v, ok := m["path"].(string); ok {
			lastPath = v
		}
		if v, ok := m["ip"].(string); ok {
			lastIP = v
		}
	}

	names := make([]string, 0, len(health.Dependencies))
	for name := range health.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var deps strings.Builder
	for _, name := range names {
		dep := health.Dependencies[name]
		label := depLabels[name]
		if label == "" {
			label = name
		}
		class := "err"
		if dep.Status == "connected" {
			class = "ok"
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="state-%s">%s</span></span></div>`,
			label, name, class, name, dep.Status)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Brokerage API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ink: #0f172a; --green: #047857; --red: #dc2626; --muted: #64748b; --bg: #f1f5f9; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; padding: 48px 16px; }
    .container { max-width: 980px; margin: 0 auto; }
    header { display: flex; justify-content: space-between; align-items: baseline; margin-bottom: 24px; }
    h1 { font-size: 40px; font-weight: 800; letter-spacing: -1px; margin: 0; }
    .issue h1 { color: var(--red); }
    .time { font-size: 13px; font-weight: 700; color: var(--muted); }
    .card { background: #fff; border-radius: 16px; box-shadow: 0 10px 40px -12px rgba(15,23,42,0.15); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 32px; border-right: 1px solid #e2e8f0; }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #94a3b8; margin-bottom: 18px; }
    .big { font-size: 34px; font-weight: 800; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 7px 0; border-bottom: 1px solid #f1f5f9; font-size: 14px; font-weight: 600; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; display: flex; align-items: center; gap: 6px; }
    .ok { background: rgba(4,120,87,0.08); color: var(--green); }
    .err { background: rgba(220,38,38,0.08); color: var(--red); }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .footer { background: #f8fafc; padding: 14px 32px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; border-top: 1px solid #e2e8f0; }
    .actions { margin-top: 20px; display: flex; gap: 12px; }
    button { border: 1px solid #cbd5e1; background: #fff; padding: 8px 18px; border-radius: 8px; font-weight: 700; cursor: pointer; }
    #errors { margin-top: 20px; display: none; background: #fff; border-radius: 12px; padding: 20px; font-size: 13px; }
    .error-item { border-bottom: 1px solid #f1f5f9; padding: 10px 0; }
    .error-item b { color: var(--red); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid #e2e8f0; } }
  </style>
</head>
<body class="` + health.Status + `">
  <div class="container">
    <header>
      <h1 id="headline">` + headline + `</h1>
      <span class="time" id="time-display"></span>
    </header>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">--</div>
          <div class="row"><span>Heap In Use</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Go</span><span>` + health.Runtime.GoVersion + `</span></div>
          <div class="row"><span>Platform</span><span style="font-size:11px">` + health.Runtime.Platform + `</span></div>
        </div>
        <div class="col">
          <div class="label">Dependencies</div>
          ` + deps.String() + `
        </div>
      </div>
      <div class="footer">
        <span id="req-method">` + lastMethod + `</span>
        <span id="req-path">` + lastPath + `</span>
        <span id="req-ip">` + lastIP + `</span>
      </div>
    </div>
    <div class="actions">
      <button onclick="refresh()">Refresh</button>
      <button onclick="showErrors()">View Error Log</button>
    </div>
    <div id="errors"></div>
  </div>
  <script>
    const fmt = (s) => { const h = Math.floor(s / 3600); const m = Math.floor((s % 3600) / 60); return h + 'h ' + m + 'm ' + Math.floor(s % 60) + 's'; };
    const set = (id, v) => { const el = document.getElementById(id); if (el) el.innerText = v; };
    const render = (d) => {
      set('time-display', new Date().toLocaleTimeString());
      set('total-req', d.traffic.totalRequests);
      set('success-count', d.traffic.successCount);
      set('failed-count', d.traffic.failedCount);
      set('success-rate', d.traffic.successRate + '%');
      set('avg-time', d.traffic.avgResponseTime + 'ms');
      set('uptime', fmt(d.runtime.uptimeSeconds));
      set('mem-heap', d.runtime.memory.heapUsed + ' MB');
      set('goroutines', d.runtime.goroutines);
      for (const [name, dep] of Object.entries(d.dependencies)) {
        const pill = document.getElementById('pill-' + name);
        if (pill) pill.className = 'pill ' + (dep.status === 'connected' ? 'ok' : 'err');
        set('state-' + name, dep.status);
      }
      document.body.className = d.status;
      set('headline', d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected');
    };
    async function refresh() { try { const r = await fetch('/health/json'); render(await r.json()); } catch (e) {} }
    async function showErrors() {
      const box = document.getElementById('errors'); box.style.display = 'block'; box.innerText = 'Fetching logs...';
      try {
        const list = await (await fetch('/health/errors')).json();
        if (list.length === 0) { box.innerText = 'No internal errors recorded.'; return; }
        box.innerHTML = list.map(e => '<div class="error-item">' + new Date(e.time).toLocaleString() + ' ' + (e.method||'') + ' ' + (e.path||'') + '<br><b>' + (e.message||'') + '</b></div>').join('');
      } catch (e) { box.innerText = 'Error loading logs.'; }
    }
    render(JSON.parse(` + "`" + jsonStr + "`" + `));
  </script>
</body>
</html>`
}
