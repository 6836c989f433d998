// Command rwchcdcore-demo wires the I/O aggregation core end to end
// from a YAML config file: backend registry, temperature/switch/relay
// meta-inputs and meta-outputs, the Prometheus log sink, and the
// global tick driver. This binary scopes to hardware abstraction and
// I/O aggregation only, so the tick driver's plant callback is nil
// and this binary is only useful as a live smoke test of the wiring
// itself.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"rwchcd-core/alarms"
	"rwchcd-core/backend"
	"rwchcd-core/backends/hwp1"
	"rwchcd-core/backends/netctl"
	"rwchcd-core/bus"
	"rwchcd-core/config"
	"rwchcd-core/hwerr"
	"rwchcd-core/iofacade"
	"rwchcd-core/iotypes"
	"rwchcd-core/logsink"
	"rwchcd-core/meta"
	"rwchcd-core/tick"
	"rwchcd-core/x/strx"
)

// defaultNetctlAddress is used when a netctl backend's config omits an
// explicit address, so a bare `driver: netctl` entry still dials
// something rather than failing with an empty target.
const defaultNetctlAddress = "127.0.0.1:50051"

func main() {
	cfgPath := flag.String("config", "system.yaml", "path to the system YAML config")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	sys, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	b := bus.NewBus(8)
	alarmConn := b.NewConnection("alarms")
	alarmSink := alarms.NewBusSink(alarmConn)

	reg := backend.NewRegistry(backend.WithLogger(log), backend.WithAlarms(alarmSink))
	if err := wireBackends(reg, sys, log); err != nil {
		log.Fatal("backend wiring failed", zap.Error(err))
	}

	if err := reg.Setup(); err != nil {
		log.Warn("registry setup reported failures", zap.Error(err))
	}
	if err := reg.Online(); err != nil {
		log.Warn("registry online reported failures", zap.Error(err))
	}

	temps := iofacade.NewTemperatureInputs()
	for _, tc := range sys.Temperatures {
		sources, err := resolveChanIns(reg, tc.Sources)
		if err != nil {
			log.Fatal("temperature input wiring failed", zap.String("name", tc.Name), zap.Error(err))
		}
		op, _ := config.ParseOperation(tc.Op)
		missing, _ := config.ParseMissingPolicy(tc.Missing)
		period := tc.Period
		if period <= 0 {
			period = time.Second
		}
		cfg := meta.TemperatureConfig{
			Name: tc.Name, Sources: sources, Op: op, Missing: missing,
			DefaultValue: tc.DefaultValue, Period: period,
		}
		temps.Add(tc.Name, meta.NewTemperature(cfg, reg, meta.WithTemperatureAlarms(alarmSink), meta.WithTemperatureLogger(log)))
	}

	switches := iofacade.NewSwitchInputs()
	for _, sc := range sys.Switches {
		sources, err := resolveChanIns(reg, sc.Sources)
		if err != nil {
			log.Fatal("switch input wiring failed", zap.String("name", sc.Name), zap.Error(err))
		}
		op, _ := config.ParseSwitchOperation(sc.Op)
		missing, _ := config.ParseMissingPolicy(sc.Missing)
		period := sc.Period
		if period <= 0 {
			period = time.Second
		}
		cfg := meta.SwitchConfig{
			Name: sc.Name, Sources: sources, Op: op, Missing: missing,
			DefaultValue: sc.DefaultValue, Period: period,
		}
		switches.Add(sc.Name, meta.NewSwitch(cfg, reg, meta.WithSwitchAlarms(alarmSink), meta.WithSwitchLogger(log)))
	}

	relays := iofacade.NewRelayOutputs()
	for _, rc := range sys.RelayOutputs {
		targets, err := resolveChanOuts(reg, rc.Targets)
		if err != nil {
			log.Fatal("relay output wiring failed", zap.String("name", rc.Name), zap.Error(err))
		}
		op, _ := config.ParseRelayOperation(rc.Op)
		missing, _ := config.ParseMissingPolicy(rc.Missing)
		cfg := meta.RelayConfig{Name: rc.Name, Targets: targets, Op: op, Missing: missing}
		relays.Add(rc.Name, meta.NewRelay(cfg, reg, meta.WithRelayLogger(log)))
	}

	promSink := logsink.NewPrometheusSink(prometheus.NewRegistry(), log)
	defer promSink.Close()
	if temps.Len() > 0 {
		if err := promSink.RegisterSource(temps.LogSource("inputs", 10*time.Second)); err != nil {
			log.Warn("failed to register temperature log source", zap.Error(err))
		}
	}
	if switches.Len() > 0 {
		if err := promSink.RegisterSource(switches.LogSource("rwchcdcore", 10*time.Second)); err != nil {
			log.Warn("failed to register switch log source", zap.Error(err))
		}
	}

	driver := tick.NewDriver(tick.Config{Period: sys.Tick.Period}, reg, nil, tick.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	go driver.Run(ctx)

	log.Info("rwchcd-core running", zap.Int("backends", reg.Len()), zap.Duration("tick_period", sys.Tick.Period))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	if err := reg.Offline(); err != nil {
		log.Warn("registry offline reported failures", zap.Error(err))
	}
	reg.Exit()
}

// wireBackends constructs and registers one backend.Capability per
// config.BackendConfig. Unknown drivers are a fatal config error, not
// a silently skipped entry.
func wireBackends(reg *backend.Registry, sys *config.System, log *zap.Logger) error {
	for _, bc := range sys.Backends {
		var backendCap backend.Capability
		switch bc.Driver {
		case "hwp1":
			backendCap = hwp1.NewBackend(parseHwp1Config(bc.Params), hwp1DefaultI2C(), hwp1DefaultPins(), hwp1.WithLogger(log))
		case "netctl":
			addr, _ := bc.Params["address"].(string)
			addr = strx.Coalesce(addr, defaultNetctlAddress)
			b, err := netctl.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return hwerr.Wrap("wireBackends", hwerr.EOffline, err)
			}
			backendCap = b
		default:
			return hwerr.Wrap("wireBackends", hwerr.ENotImplemented, nil)
		}
		if err := reg.Register(bc.Name, backendCap); err != nil {
			return err
		}
	}
	return nil
}

// parseHwp1Config decodes a hwp1 backend's channel geometry out of its
// driver-specific params map:
//
//	params:
//	  temperatures: [{addr: 72, reg: 0, scale: 0.0625, offset: 0}]
//	  switches:     [{pin: 17}]
//	  relays:       [{pin: 27}]
//
// yaml.v3 decodes a params map's nested sequences/mappings as
// []any/map[string]any, so every field is pulled out defensively;
// a missing or mistyped field is left at its zero value rather than
// failing config load, matching config.System's own parse-then-Validate
// split.
func parseHwp1Config(params map[string]any) hwp1.Config {
	var cfg hwp1.Config
	for _, raw := range paramList(params, "temperatures") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cfg.Temperatures = append(cfg.Temperatures, hwp1.I2CChannel{
			Addr:   uint16(paramInt(m, "addr")),
			Reg:    byte(paramInt(m, "reg")),
			Scale:  paramFloat(m, "scale"),
			Offset: paramFloat(m, "offset"),
		})
	}
	for _, raw := range paramList(params, "switches") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cfg.Switches = append(cfg.Switches, hwp1.GPIOChannel{Pin: paramInt(m, "pin")})
	}
	for _, raw := range paramList(params, "relays") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cfg.Relays = append(cfg.Relays, hwp1.GPIOChannel{Pin: paramInt(m, "pin")})
	}
	return cfg
}

func paramList(params map[string]any, key string) []any {
	v, _ := params[key].([]any)
	return v
}

func paramInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func paramFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func resolveChanIns(reg *backend.Registry, refs []config.ChanRef) ([]iotypes.ChanIn, error) {
	out := make([]iotypes.ChanIn, len(refs))
	for i, ref := range refs {
		id, ok := reg.IDOf(ref.Backend)
		if !ok {
			return nil, hwerr.Wrap("resolveChanIns", hwerr.ENotFound, nil)
		}
		out[i] = iotypes.ChanIn{Backend: id, Chan: iotypes.BinID(ref.Chan)}
	}
	return out, nil
}

func resolveChanOuts(reg *backend.Registry, refs []config.ChanRef) ([]iotypes.ChanOut, error) {
	out := make([]iotypes.ChanOut, len(refs))
	for i, ref := range refs {
		id, ok := reg.IDOf(ref.Backend)
		if !ok {
			return nil, hwerr.Wrap("resolveChanOuts", hwerr.ENotFound, nil)
		}
		out[i] = iotypes.ChanOut{Backend: id, Chan: iotypes.BoutID(ref.Chan)}
	}
	return out, nil
}
