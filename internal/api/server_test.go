package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/topolab/pkg/engine"
	"github.com/matzehuels/topolab/pkg/graphview"
)

const apiLab = `name: api-lab
topology:
  nodes:
    r1:
      kind: nokia_srlinux
    r2:
      kind: nokia_srlinux
  links:
    - endpoints: ["r1:e1-1", "r2:e1-1"]
`

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.clab.yml")
	if err := os.WriteFile(path, []byte(apiLab), 0o644); err != nil {
		t.Fatal(err)
	}
	eng := engine.New(engine.Config{Path: path})
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	srv := httptest.NewServer(NewServer(eng, nil).Router())
	t.Cleanup(srv.Close)
	return srv, eng
}

func postCommand(t *testing.T, srv *httptest.Server, req commandRequest) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+"/api/v1/commands", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, buf.Bytes()
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var snap engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Name != "api-lab" || snap.Revision != 1 {
		t.Errorf("snapshot = %q rev %d", snap.Name, snap.Revision)
	}
	if len(snap.Elements.Edges) != 1 {
		t.Errorf("edges = %d", len(snap.Elements.Edges))
	}
}

func TestProtocolMismatch(t *testing.T) {
	srv, eng := newTestServer(t)
	els := eng.Snapshot().Elements

	resp, body := postCommand(t, srv, commandRequest{
		ProtocolVersion: engine.ProtocolVersion + 1,
		BaseRevision:    1,
		Command:         engine.Command{Type: engine.CmdSaveTopology, Elements: &els},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(string(body), "protocol-mismatch") {
		t.Errorf("body = %s", body)
	}

	// A rejected version never reaches the engine.
	if eng.Snapshot().Revision != 1 {
		t.Error("command applied despite version mismatch")
	}
}

func TestRevisionConflict(t *testing.T) {
	srv, eng := newTestServer(t)
	els := eng.Snapshot().Elements

	resp, body := postCommand(t, srv, commandRequest{
		ProtocolVersion: engine.ProtocolVersion,
		BaseRevision:    42,
		Command:         engine.Command{Type: engine.CmdSaveTopology, Elements: &els},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	var conflict errorBody
	if err := json.Unmarshal(body, &conflict); err != nil {
		t.Fatal(err)
	}
	if conflict.Error.Code != "revision-conflict" {
		t.Errorf("code = %q", conflict.Error.Code)
	}
	if conflict.Revision != 1 {
		t.Errorf("conflict body revision = %d, want current 1", conflict.Revision)
	}
}

func TestCommandApplies(t *testing.T) {
	srv, eng := newTestServer(t)
	els := eng.Snapshot().Elements
	els.Nodes = append(els.Nodes, graphview.NodeElement{
		ID: "r3", Name: "r3", Role: graphview.RoleRouter,
		Extra: map[string]any{"kind": "nokia_srlinux"},
	})

	resp, body := postCommand(t, srv, commandRequest{
		ProtocolVersion: engine.ProtocolVersion,
		BaseRevision:    1,
		Command:         engine.Command{Type: engine.CmdSaveTopology, Elements: &els},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var res engine.Result
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.Revision != 2 {
		t.Errorf("revision = %d, want 2", res.Revision)
	}
	snapEls := eng.Snapshot().Elements
	if _, ok := snapEls.Node("r3"); !ok {
		t.Error("r3 missing from refreshed snapshot")
	}
}

func TestWebsocketFeed(t *testing.T) {
	srv, eng := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a beat to register its revision subscription.
	time.Sleep(100 * time.Millisecond)

	els := eng.Snapshot().Elements
	if _, err := eng.Apply(context.Background(), engine.Command{Type: engine.CmdSaveTopology, Elements: &els}, 1); err != nil {
		t.Fatalf("apply: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Revision uint64 `json:"revision"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Revision != 2 {
		t.Errorf("pushed revision = %d, want 2", msg.Revision)
	}
}
