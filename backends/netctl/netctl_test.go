package netctl

import (
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

func startTestServer(t *testing.T, ctrl *MemoryController) (addr string, stop func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := grpc.NewServer()
	RegisterControllerServer(s, ctrl)
	go s.Serve(lis)
	return lis.Addr().String(), s.Stop
}

func dialTestClient(t *testing.T, addr string) *Backend {
	t.Helper()
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return NewBackend(conn, WithCallTimeout(2*time.Second))
}

func TestNetctlRoundTripsTemperatureOverTheWire(t *testing.T) {
	ctrl := NewMemoryController(1, 1)
	ctrl.SetTemperature(0, iotypes.TempValue(36.5))
	addr, stop := startTestServer(t, ctrl)
	defer stop()

	b := dialTestClient(t, addr)
	defer b.Exit()

	v, err := b.TemperatureGet(0)
	if err != nil || v.Value != 36.5 {
		t.Fatalf("TemperatureGet = (%v, %v), want (36.5, nil)", v, err)
	}
}

func TestNetctlSurfacesRemoteErrorCode(t *testing.T) {
	ctrl := NewMemoryController(1, 1)
	ctrl.Fail(0, true)
	addr, stop := startTestServer(t, ctrl)
	defer stop()

	b := dialTestClient(t, addr)
	defer b.Exit()

	if _, err := b.TemperatureGet(0); hwerr.Of(err) != hwerr.EGeneric {
		t.Fatalf("TemperatureGet = %v, want EGeneric", err)
	}
}

func TestNetctlRelayStateSetRoundTrips(t *testing.T) {
	ctrl := NewMemoryController(0, 1)
	addr, stop := startTestServer(t, ctrl)
	defer stop()

	b := dialTestClient(t, addr)
	defer b.Exit()

	if err := b.RelayStateSet(0, true); err != nil {
		t.Fatalf("RelayStateSet: %v", err)
	}
	v, err := b.RelayStateGet(0)
	if err != nil || !v {
		t.Fatalf("RelayStateGet = (%v, %v), want (true, nil)", v, err)
	}
}
