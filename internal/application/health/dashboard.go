package health

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderDashboardHTML builds the status page served on GET /. The collected
// health snapshot is embedded as JSON so the page renders without a second
// round trip; the page then polls /health/json a few times before pausing.
func RenderDashboardHTML(health CollectResult) string {
	payload := map[string]interface{}{
		"status":       health.Status,
		"runtime":      health.Runtime,
		"traffic":      health.Traffic,
		"dependencies": health.Dependencies,
	}
	b, _ := json.Marshal(payload)
	jsonStr := string(b)
	// Escape for embedding in a JS template literal: \ ` $
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")

	avgTime := fmt.Sprint(health.Traffic.AvgResponseTime)
	lastReqMethod := "-"
	lastReqPath := "-"
	lastReqIP := "-"
	if health.Traffic.LastRequest != nil {
		if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
			if v, ok := m["method"].(string); ok {
				lastReqMethod = v
			}
			if v, ok := m["path"].(string); ok {
				lastReqPath = v
			}
			if v, ok := m["ip"].(string); ok {
				lastReqIP = v
			}
		}
	}

	load0 := "0.00"
	if len(health.Runtime.CPU.LoadAvg) > 0 {
		load0 = health.Runtime.CPU.LoadAvg[0]
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>RoamStay · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;600;800;900&display=swap" rel="stylesheet">
  <style>
    :root { --rose: #E11D48; --ink: #0F172A; --bg: #FDF8F6; --muted: #64748b; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--ink); font-family: 'Inter', sans-serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .wrap { width: 100%; max-width: 1040px; padding: 40px 20px; display: flex; flex-direction: column; align-items: center; }
    header { width: 100%; display: flex; justify-content: space-between; align-items: center; margin-bottom: 28px; }
    .brand { font-size: 22px; font-weight: 900; letter-spacing: -1px; }
    .brand em { color: var(--rose); font-style: normal; }
    .clock { font-size: 13px; font-weight: 800; background: #fff; padding: 8px 18px; border-radius: 99px; border: 1px solid rgba(15,23,42,0.08); }
    h1 { font-size: clamp(30px, 5vw, 52px); font-weight: 900; letter-spacing: -2px; margin: 0 0 8px; text-align: center; }
    .sub { font-size: 15px; font-weight: 600; color: var(--muted); margin: 0 0 28px; }
    .card { width: 100%; background: #fff; border-radius: 24px; border: 1px solid rgba(15,23,42,0.06); box-shadow: 0 24px 80px -30px rgba(225,29,72,0.15); overflow: hidden; position: relative; }
    .bar { height: 4px; width: 0%; background: var(--rose); position: absolute; top: 0; transition: width 10s linear; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 38px; border-right: 1px solid rgba(15,23,42,0.05); }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 22px; }
    .big { font-size: clamp(24px, 3.5vw, 40px); font-weight: 900; line-height: 1; margin-bottom: 12px; }
    .row { display: flex; justify-content: space-between; align-items: center; padding: 8px 0; border-bottom: 1px solid rgba(15,23,42,0.04); font-size: 14px; font-weight: 600; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 4px 12px; border-radius: 10px; font-size: 11px; font-weight: 900; display: flex; align-items: center; gap: 7px; }
    .ok { background: rgba(5,150,105,0.08); color: #059669; }
    .err { background: rgba(225,29,72,0.08); color: var(--rose); }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .foot { background: rgba(15,23,42,0.02); padding: 16px 38px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; font-weight: 700; border-top: 1px solid rgba(15,23,42,0.05); }
    .after { margin-top: 26px; display: flex; align-items: center; gap: 14px; }
    button { border: none; padding: 8px 20px; border-radius: 10px; cursor: pointer; font-weight: 900; font-size: 12px; font-family: inherit; }
    .btn-log { background: transparent; color: var(--muted); border: 1px solid rgba(15,23,42,0.12); }
    .btn-log:hover { color: var(--ink); }
    #btn-refresh { background: var(--rose); color: #fff; display: none; }
    #modal { display: none; position: fixed; inset: 0; background: rgba(15,23,42,0.45); z-index: 100; align-items: center; justify-content: center; padding: 20px; }
    .modal-box { background: #fff; width: 100%; max-width: 680px; border-radius: 20px; padding: 34px; max-height: 80vh; overflow-y: auto; }
    .entry { border-bottom: 1px solid #f1f5f9; padding: 13px 0; font-size: 13px; }
    .entry:last-child { border-bottom: none; }
    .entry .meta { display: flex; gap: 10px; font-weight: 800; color: var(--rose); margin-bottom: 4px; text-transform: uppercase; font-size: 10px; }
    .entry .msg { font-weight: 700; }
    @media (max-width: 860px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid rgba(15,23,42,0.05); } .foot { flex-direction: column; gap: 8px; } }
  </style>
</head>
<body>
  <div id="modal" onclick="closeLog(event)">
    <div class="modal-box" onclick="event.stopPropagation()">
      <div style="display:flex; justify-content:space-between; align-items:center; margin-bottom:24px;">
        <h2 style="margin:0; font-weight:900; letter-spacing:-1px;">Recent Failures (Last 50)</h2>
        <button onclick="closeLog()" style="background:none; color:var(--muted)">CLOSE</button>
      </div>
      <div id="log-list">Loading...</div>
    </div>
  </div>
  <div class="wrap">
    <header>
      <div class="brand">Roam<em>Stay</em> API</div>
      <div class="clock"><span id="clock"></span></div>
    </header>
    <h1 id="headline">All Systems Operational</h1>
    <p class="sub">Live traffic, runtime, and dependency status.</p>
    <div class="card">
      <div id="bar" class="bar"></div>
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count" style="color:#059669">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count" style="color:var(--rose)">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + avgTime + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">--h --m --s</div>
          <div class="row"><span>Heap Used</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Memory (RSS)</span><span>` + fmt.Sprint(health.Runtime.Memory.RSS) + ` MB</span></div>
          <div class="row"><span>Load Avg</span><span id="load">` + load0 + `</span></div>
          <div class="row"><span>Platform</span><span style="font-size:10px">` + health.Runtime.Platform + `</span></div>
        </div>
        <div class="col">
          <div class="label">Connectivity</div>
          <div class="row"><span>Database</span><span id="pill-database" class="pill ok"><span class="dot"></span><span id="ping-database">-- ms</span></span></div>
          <div class="row"><span>Redis</span><span id="pill-redis" class="pill ok"><span class="dot"></span><span id="ping-redis">-- ms</span></span></div>
          <div class="row"><span>Geocoder</span><span id="pill-geocoder" class="pill ok"><span class="dot"></span><span id="ping-geocoder">-- ms</span></span></div>
          <div class="row"><span>Media CDN</span><span id="pill-media" class="pill ok"><span class="dot"></span><span id="ping-media">-- ms</span></span></div>
        </div>
      </div>
      <div class="foot">
        <div><span style="opacity:0.5; margin-right:10px;">LAST INBOUND</span> <span id="req-method" style="font-weight:900">` + lastReqMethod + `</span></div>
        <div id="req-path">` + lastReqPath + `</div>
        <div id="req-ip" style="opacity:0.6">` + lastReqIP + `</div>
      </div>
    </div>
    <div class="after">
      <button class="btn-log" onclick="showLog()">View Error Log</button>
      <div id="poll-status" style="font-weight:800; color:var(--muted); font-size:13px">Live updates · <span id="count">3</span> left</div>
      <button id="btn-refresh" onclick="tick(true)">Refresh</button>
    </div>
  </div>
  <script>
    let left = 3;
    const bar = document.getElementById('bar');
    const fmt = (s) => { const d = Math.floor(s / 86400); const h = Math.floor((s % 86400) / 3600); const m = Math.floor((s % 3600) / 60); const sec = Math.floor(s % 60); return d > 0 ? d + 'd ' + h + 'h ' + m + 'm' : h + 'h ' + m + 'm ' + sec + 's'; };
    const resetBar = () => { bar.style.transition='none'; bar.style.width='0%'; void bar.offsetWidth; bar.style.transition='width 10s linear'; bar.style.width='100%'; };
    const updateUI = (d) => {
      document.getElementById('clock').innerText = new Date().toLocaleTimeString();
      document.getElementById('total-req').innerText = d.traffic.totalRequests;
      document.getElementById('success-count').innerText = d.traffic.successCount;
      document.getElementById('failed-count').innerText = d.traffic.failedCount;
      document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
      document.getElementById('avg-time').innerText = d.traffic.avgResponseTime + 'ms';
      document.getElementById('uptime').innerText = fmt(d.runtime.uptimeSeconds);
      document.getElementById('mem-heap').innerText = d.runtime.memory.heapUsed + ' MB';
      document.getElementById('load').innerText = d.runtime.cpu.loadAvg[0];
      if (d.traffic.lastRequest) { document.getElementById('req-method').innerText = d.traffic.lastRequest.method; document.getElementById('req-path').innerText = d.traffic.lastRequest.path; document.getElementById('req-ip').innerText = d.traffic.lastRequest.ip; }
      const setP = (name) => { const dep = d.dependencies[name]; if (!dep) return; const pill = document.getElementById('pill-' + name); const isOk = dep.status === 'connected' || dep.status === 'reachable'; pill.className = 'pill ' + (isOk ? 'ok' : 'err'); document.getElementById('ping-' + name).innerText = (dep.pingMs != null ? dep.pingMs : '?') + ' ms'; };
      ['database', 'redis', 'geocoder', 'media'].forEach(setP);
      const hl = document.getElementById('headline');
      if (d.status === 'ok') { hl.innerText = 'All Systems Operational'; hl.style.color = ''; }
      else { hl.innerText = 'Service Degraded'; hl.style.color = 'var(--rose)'; }
    };
    async function tick(manual) { if (!manual && left <= 0) return; try { const r = await fetch('/health/json'); const d = await r.json(); updateUI(d); if (!manual) { left--; document.getElementById('count').innerText = left; if (left > 0) resetBar(); else { document.getElementById('poll-status').innerText = 'Updates paused'; document.getElementById('btn-refresh').style.display = 'block'; } } } catch(e){} }
    async function showLog() { const modal = document.getElementById('modal'); const list = document.getElementById('log-list'); modal.style.display = 'flex'; list.innerHTML = 'Fetching...'; try { const r = await fetch('/health/errors'); const errors = await r.json(); if (errors.length === 0) { list.innerHTML = '<div style="text-align:center; padding:36px; color:var(--muted); font-weight:700;">No failures recorded.</div>'; return; } list.innerHTML = errors.map(e => '<div class="entry"><div class="meta"><span>' + new Date(e.time).toLocaleString() + '</span> <span>' + (e.method||'') + ' ' + (e.path||'') + '</span>' + (e.kind ? ' <span>' + e.kind + '</span>' : '') + '</div><div class="msg">' + (e.message||'') + '</div></div>').join(''); } catch (e) { list.innerHTML = 'Error loading log.'; } }
    function closeLog() { document.getElementById('modal').style.display = 'none'; }
    setTimeout(() => { const data = JSON.parse(` + "`" + jsonStr + "`" + `); updateUI(data); resetBar(); }, 100);
    setInterval(() => tick(), 10000);
  </script>
</body>
</html>`
}
