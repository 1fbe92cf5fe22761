package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/jakepeery/grout-pump/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
	"onoff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Grout Pump</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.estop { color: red; font-weight: bold; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Grout Pump<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

{{if .Control.Estop}}<p class="estop">EMERGENCY STOP ACTIVE</p>{{end}}

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Control.Mode}}</td></tr>
<tr><th>Direction</th><td id="direction">{{.Control.Direction}}</td></tr>
<tr><th>GPO1 (IN)</th><td id="gpo1" class="{{if .Control.Outputs.Gpo1}}on{{else}}off{{end}}">{{onoff .Control.Outputs.Gpo1}}</td></tr>
<tr><th>GPO2 (OUT)</th><td id="gpo2" class="{{if .Control.Outputs.Gpo2}}on{{else}}off{{end}}">{{onoff .Control.Outputs.Gpo2}}</td></tr>
<tr><th>End stop IN</th><td id="endstop-in">{{onoff .Control.EndStopIn}}</td></tr>
<tr><th>End stop OUT</th><td id="endstop-out">{{onoff .Control.EndStopOut}}</td></tr>
</table>

<h2>Cycle</h2>
<table>
<tr><th>Last stroke</th><td id="last">{{ms .Control.LastDuration}} ms</td></tr>
<tr><th>Average stroke</th><td id="avg">{{ms .Control.AvgDuration}} ms</td></tr>
<tr><th>Timeout</th><td>{{if .Control.TimeoutEnabled}}{{ms .Control.CycleTimeout}} ms{{else}}disabled{{end}}</td></tr>
</table>

<h2>Settings</h2>
<form method="post" action="/save">
<table>
<tr><th>Cycle timeout (ms)</th><td><input type="number" name="timeout" min="1000" max="300000" value="{{ms .Control.CycleTimeout}}"></td></tr>
<tr><th>Timeout enabled</th><td><input type="checkbox" name="timeoutEnabled" value="1"{{if .Control.TimeoutEnabled}} checked{{end}}></td></tr>
<tr><th></th><td><button type="submit">Save</button></td></tr>
</table>
</form>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td>{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Settle delay</th><td>{{.Config.SettleMs}}ms</td></tr>
</table>

<p><a href="/status">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setText(id, text) {
    document.getElementById(id).textContent = text;
  }

  function setOnOff(id, on) {
    var el = document.getElementById(id);
    el.textContent = on ? "ON" : "OFF";
    el.className = on ? "on" : "off";
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "disconnected");
      setTimeout(connect, 3000);
    };
    ws.onmessage = function(e) {
      try {
        var st = JSON.parse(e.data);
        setText("mode", st.mode);
        setText("direction", st.cycleDirection);
        setOnOff("gpo1", st.gpo1);
        setOnOff("gpo2", st.gpo2);
        setText("endstop-in", st.endStopIn ? "ON" : "OFF");
        setText("endstop-out", st.endStopOut ? "ON" : "OFF");
        setText("last", st.lastDuration + " ms");
        setText("avg", st.avgDuration + " ms");
      } catch (err) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template wants a plain field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
