package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/thermostat/internal/console"
	"github.com/sweeney/thermostat/internal/mqtt"
	"github.com/sweeney/thermostat/internal/status"
	"github.com/sweeney/thermostat/internal/units"
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
	"remaining": console.FormatRemaining,
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Thermostat</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Thermostat{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Control</h2>
<table>
<tr><th>Mode</th><td>{{.Mode}}</td></tr>
<tr><th>Phase</th><td id="phase">{{.Phase}}</td></tr>
<tr><th>{{.Device}}</th><td id="relay" class="{{if eq .Relay "ON"}}on{{else if eq .Relay "OFF"}}off{{else}}unknown{{end}}">{{.Relay}}</td></tr>
<tr><th>Temp</th><td id="temp">{{.Temp}}</td></tr>
<tr><th>Set</th><td>{{.Target}} ± {{.Tolerance}}</td></tr>
<tr><th>Remaining</th><td>{{remaining .Control.TimeRemaining}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Ticks</th><td>{{.Counts.Ticks}}</td></tr>
<tr><th>Relay ON</th><td>{{.Counts.RelayOn}}</td></tr>
<tr><th>Relay OFF</th><td>{{.Counts.RelayOff}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
<tr><th>Faults</th><td>{{.Counts.Faults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Session</th><td>{{stateOrUnknown .Control.Session}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Min off</th><td>{{.Config.MinOffMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Hardware</th><td>sensor={{.Config.Sensor}} relay={{.Config.Relay}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Topic}}";
  var dot = document.getElementById("live-dot");
  var relayEl = document.getElementById("relay");
  var phaseEl = document.getElementById("phase");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.thermostat) {
        relayEl.textContent = msg.thermostat.relay;
        relayEl.className = msg.thermostat.relay === "ON" ? "on" : "off";
        phaseEl.textContent = msg.thermostat.phase;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

// page adds display-ready fields to the status snapshot.
type page struct {
	status.Snapshot
	Uptime    time.Duration
	Mode      string
	Phase     string
	Relay     string
	Device    string
	Temp      string
	Target    string
	Tolerance string
	Topic     string
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	u := snap.Config.Units
	if u == "" {
		u = units.Celsius
	}
	cs := snap.Control

	p := page{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Mode:      status.ModeString(cs.IsHeater),
		Phase:     string(cs.Phase),
		Relay:     string(cs.Relay),
		Device:    "Chiller",
		Temp:      "--",
		Target:    fmt.Sprintf("%.2f%s", units.FromCelsius(u, cs.TargetTemp), u.Symbol()),
		Tolerance: fmt.Sprintf("%.2f", units.DeltaFromCelsius(u, cs.Tolerance)),
		Topic:     mqtt.Topic,
	}
	if cs.IsHeater {
		p.Device = "Heater"
	}
	if p.Phase == "" {
		p.Phase = "IDLE"
	}
	if p.Relay == "" {
		p.Relay = "UNKNOWN"
	}
	if cs.HasReading {
		p.Temp = fmt.Sprintf("%.2f%s", units.FromCelsius(u, cs.CurrentTemp), u.Symbol())
	}
	indexTmpl.Execute(w, p)
}
