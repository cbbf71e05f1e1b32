package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/Versifine/mcprobe/internal/protocol"
	"github.com/google/uuid"
)

// fakeServer is the server end of a net.Pipe.
type fakeServer struct {
	t         *testing.T
	conn      net.Conn
	threshold int
}

func (f *fakeServer) read() *protocol.Packet {
	f.t.Helper()
	p, err := protocol.ReadPacket(f.conn, f.threshold)
	if err != nil {
		f.t.Errorf("Server: read failed: %v", err)
		return &protocol.Packet{ID: -1}
	}
	return p
}

func (f *fakeServer) expect(id int32) *protocol.Packet {
	f.t.Helper()
	p := f.read()
	if p.ID != id {
		f.t.Errorf("Server: expected packet 0x%02x, got 0x%02x", id, p.ID)
	}
	return p
}

func (f *fakeServer) send(id int32, payload []byte) {
	f.t.Helper()
	if err := protocol.WritePacket(f.conn, &protocol.Packet{ID: id, Payload: payload}, f.threshold); err != nil {
		f.t.Errorf("Server: failed to send 0x%02x: %v", id, err)
	}
}

// acceptLogin consumes handshake and login start and returns the username.
func (f *fakeServer) acceptLogin() string {
	f.t.Helper()
	hs, err := protocol.ParseHandShake(bytes.NewReader(f.expect(protocol.C2SHandshake).Payload))
	if err != nil {
		f.t.Errorf("Server: bad handshake: %v", err)
		return ""
	}
	if hs.NextState != protocol.NextStateLogin {
		f.t.Errorf("Server: next state = %d, want login", hs.NextState)
	}
	start, err := protocol.ParseLoginStart(bytes.NewReader(f.expect(protocol.C2SLoginStart).Payload))
	if err != nil {
		f.t.Errorf("Server: bad login start: %v", err)
		return ""
	}
	return start.Username
}

func (f *fakeServer) sendLoginSuccess(username string) {
	buf := new(bytes.Buffer)
	_ = protocol.WriteUUID(buf, protocol.OfflineUUID(username))
	_ = protocol.WriteString(buf, username)
	_ = protocol.WriteVarint(buf, 0)
	f.send(protocol.S2CLoginSuccess, buf.Bytes())
}

func stringPayload(s string) []byte {
	buf := new(bytes.Buffer)
	_ = protocol.WriteString(buf, s)
	return buf.Bytes()
}

func varintPayload(v int32) []byte {
	return protocol.AppendVarint(nil, v)
}

// recordingObserver collects callbacks in order.
type recordingObserver struct {
	NopObserver
	events []string
}

func (r *recordingObserver) CompressionEnabled(threshold int) {
	r.events = append(r.events, "compression")
}

func (r *recordingObserver) LoginSucceeded(*protocol.LoginSuccess) {
	r.events = append(r.events, "login")
}

func (r *recordingObserver) EntitySpawned(e *protocol.SpawnEntity) {
	r.events = append(r.events, "entity:"+e.TypeName)
}

func (r *recordingObserver) PlayerSpawned(*protocol.SpawnPlayer) {
	r.events = append(r.events, "player")
}

func (r *recordingObserver) EntityAnimated(a *protocol.EntityAnimation) {
	r.events = append(r.events, "animation:"+a.Name)
}

func (r *recordingObserver) UnknownPacket(_ protocol.State, _ int32, count int) {
	r.events = append(r.events, "unknown")
}

func newPipeSession(t *testing.T, opts ...Option) (*Session, *fakeServer) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(client, opts...), &fakeServer{t: t, conn: server, threshold: -1}
}

// runServer runs fn on the server side and waits for it when the test ends.
func runServer(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	t.Cleanup(func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Server goroutine did not finish")
		}
	})
}

func TestStatus(t *testing.T) {
	s, srv := newPipeSession(t, WithServerAddress("127.0.0.1", 25565))
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	const statusJSON = `{"version":{"name":"1.20.1","protocol":763},"description":{"text":"A Minecraft Server"}}`

	runServer(t, func() {
		hs, err := protocol.ParseHandShake(bytes.NewReader(srv.expect(protocol.C2SHandshake).Payload))
		if err != nil {
			t.Errorf("Server: bad handshake: %v", err)
			return
		}
		if hs.ProtocolVersion != 763 || hs.ServerAddress != "127.0.0.1" || hs.ServerPort != 25565 || hs.NextState != protocol.NextStateStatus {
			t.Errorf("Server: handshake = %+v", hs)
		}
		srv.expect(protocol.C2SStatusRequest)
		srv.send(protocol.S2CStatusResponse, stringPayload(statusJSON))
		ping := srv.expect(protocol.C2SPingRequest)
		srv.send(protocol.S2CPingResponse, ping.Payload)
	})

	result, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() 返回错误: %v", err)
	}
	if result.JSON != statusJSON {
		t.Errorf("JSON = %q, 期望 %q", result.JSON, statusJSON)
	}
	if got := result.Ping.String(); got != "ping <1 second" {
		t.Errorf("Ping = %q, 期望 %q", got, "ping <1 second")
	}
	if s.State() != protocol.Status {
		t.Errorf("State() = %s, 期望 Status", s.State())
	}
}

func TestStatusUnexpectedPacket(t *testing.T) {
	s, srv := newPipeSession(t)

	runServer(t, func() {
		srv.expect(protocol.C2SHandshake)
		srv.expect(protocol.C2SStatusRequest)
		srv.send(0x05, nil)
	})

	_, err := s.Status(context.Background())
	if !errors.Is(err, protocol.ErrUnexpectedPacket) || !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("Status() 错误 = %v, 期望 ErrUnexpectedPacket", err)
	}
}

func TestStatusCancelled(t *testing.T) {
	s, srv := newPipeSession(t)
	ctx, cancel := context.WithCancel(context.Background())

	runServer(t, func() {
		srv.expect(protocol.C2SHandshake)
		srv.expect(protocol.C2SStatusRequest)
		cancel()
	})

	_, err := s.Status(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Status() 错误 = %v, 期望 context.Canceled", err)
	}
}

func TestLoginAndPlay(t *testing.T) {
	obs := &recordingObserver{}
	s, srv := newPipeSession(t, WithObserver(obs))

	runServer(t, func() {
		name := srv.acceptLogin()
		if name != "mcprobe" {
			t.Errorf("Server: username = %q", name)
		}

		// plugin request must be declined with the same message ID
		req := new(bytes.Buffer)
		_ = protocol.WriteVarint(req, 7)
		_ = protocol.WriteString(req, "minecraft:brand")
		req.WriteString("vanilla")
		srv.send(protocol.S2CLoginPluginRequest, req.Bytes())
		resp := srv.expect(protocol.C2SLoginPluginResponse)
		if !bytes.Equal(resp.Payload, []byte{0x07, 0x00}) {
			t.Errorf("Server: plugin response = %x, want 0700", resp.Payload)
		}

		srv.send(protocol.S2CSetCompression, varintPayload(256))
		srv.threshold = 256
		srv.sendLoginSuccess("mcprobe")

		entity := new(bytes.Buffer)
		_ = protocol.WriteVarint(entity, 10)
		_ = protocol.WriteUUID(entity, uuid.New())
		_ = protocol.WriteVarint(entity, 19) // Creeper
		for i := 0; i < 3; i++ {
			_ = protocol.WriteDouble(entity, 1.5)
		}
		entity.Write([]byte{0x00, 0x40, 0x40})
		_ = protocol.WriteVarint(entity, 0)
		for i := 0; i < 3; i++ {
			_ = protocol.WriteInt16(entity, 0)
		}
		srv.send(protocol.S2CSpawnEntity, entity.Bytes())

		player := new(bytes.Buffer)
		_ = protocol.WriteVarint(player, 11)
		_ = protocol.WriteUUID(player, protocol.OfflineUUID("Steve"))
		for i := 0; i < 3; i++ {
			_ = protocol.WriteDouble(player, -2)
		}
		player.Write([]byte{0x10, 0x20})
		srv.send(protocol.S2CSpawnPlayer, player.Bytes())

		srv.send(protocol.S2CEntityAnimation, []byte{0x0B, 0x00})

		// large unknown packet arrives compressed and is skipped
		srv.send(0x5a, bytes.Repeat([]byte{0x01}, 400))
		srv.send(0x5a, nil)

		keepAlive := new(bytes.Buffer)
		_ = protocol.WriteInt64(keepAlive, 424242)
		srv.send(protocol.S2CPlayKeepAlive, keepAlive.Bytes())
		echo, err := protocol.ParseKeepAlive(bytes.NewReader(srv.expect(protocol.C2SPlayKeepAlive).Payload))
		if err != nil || echo.KeepAliveID != 424242 {
			t.Errorf("Server: keep alive echo = %v, %v", echo, err)
		}

		srv.conn.Close()
	})

	success, err := s.Login(context.Background(), "mcprobe")
	if err != nil {
		t.Fatalf("Login() 返回错误: %v", err)
	}
	if success.Username != "mcprobe" || s.Username() != "mcprobe" {
		t.Errorf("Username = %q, 期望 mcprobe", success.Username)
	}
	if s.State() != protocol.Play {
		t.Fatalf("State() = %s, 期望 Play", s.State())
	}
	if on, threshold := s.Compression(); !on || threshold != 256 {
		t.Errorf("Compression() = (%v, %d), 期望 (true, 256)", on, threshold)
	}

	if err := s.Play(context.Background()); err != nil {
		t.Fatalf("Play() 返回错误: %v", err)
	}

	if len(s.Entities) != 1 || s.Entities[0].TypeName != "Creeper" || s.Entities[0].EntityID != 10 {
		t.Errorf("Entities = %+v", s.Entities)
	}
	if len(s.Players) != 1 || s.Players[0].Yaw != 0x10 || s.Players[0].Pitch != 0x20 {
		t.Errorf("Players = %+v", s.Players)
	}

	sum := s.Summary()
	expected := Summary{Entities: 1, Players: 1, Animations: 1, KeepAlives: 1, UnknownPackets: 2, UnknownIDs: 1}
	if sum != expected {
		t.Errorf("Summary() = %+v, 期望 %+v", sum, expected)
	}

	wantEvents := []string{"compression", "login", "entity:Creeper", "player", "animation:Swing main arm", "unknown", "unknown"}
	if len(obs.events) != len(wantEvents) {
		t.Fatalf("events = %v, 期望 %v", obs.events, wantEvents)
	}
	for i := range wantEvents {
		if obs.events[i] != wantEvents[i] {
			t.Errorf("events[%d] = %q, 期望 %q", i, obs.events[i], wantEvents[i])
		}
	}
}

// TestOutboundCompressionAfterSetCompression 测试压缩协商后出站帧的格式
func TestOutboundCompressionAfterSetCompression(t *testing.T) {
	s, srv := newPipeSession(t)

	type frameInfo struct {
		dataLen int32
		size    int
	}
	frames := make(chan frameInfo, 2)

	runServer(t, func() {
		srv.acceptLogin()
		srv.send(protocol.S2CSetCompression, varintPayload(256))
		srv.threshold = 256
		srv.sendLoginSuccess("mcprobe")

		for i := 0; i < 2; i++ {
			frame, err := protocol.ReadFrame(srv.conn)
			if err != nil {
				t.Errorf("Server: ReadFrame failed: %v", err)
				return
			}
			dataLen, _, err := protocol.DecodeVarint(frame)
			if err != nil {
				t.Errorf("Server: data length: %v", err)
				return
			}
			body, err := protocol.UnwrapCompression(frame, 256)
			if err != nil {
				t.Errorf("Server: UnwrapCompression failed: %v", err)
				return
			}
			frames <- frameInfo{dataLen: dataLen, size: len(body)}
		}
	})

	if _, err := s.Login(context.Background(), "mcprobe"); err != nil {
		t.Fatalf("Login() 返回错误: %v", err)
	}

	// 300 字节 (ID + payload) 应压缩, 100 字节不压缩
	if err := s.writePacket(&protocol.Packet{ID: 0x10, Payload: make([]byte, 299)}); err != nil {
		t.Fatalf("writePacket(300) 返回错误: %v", err)
	}
	if err := s.writePacket(&protocol.Packet{ID: 0x10, Payload: make([]byte, 99)}); err != nil {
		t.Fatalf("writePacket(100) 返回错误: %v", err)
	}

	first, second := <-frames, <-frames
	if first.dataLen != 300 || first.size != 300 {
		t.Errorf("300 字节包: dataLen=%d size=%d, 期望压缩且 dataLen=300", first.dataLen, first.size)
	}
	if second.dataLen != 0 || second.size != 100 {
		t.Errorf("100 字节包: dataLen=%d size=%d, 期望 dataLen=0", second.dataLen, second.size)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		server  func(srv *fakeServer)
		wantErr error
	}{
		{
			name: "服务器断开",
			server: func(srv *fakeServer) {
				srv.acceptLogin()
				srv.send(protocol.S2CLoginDisconnect, stringPayload(`{"text":"You are banned"}`))
			},
			wantErr: protocol.ErrServerDisconnect,
		},
		{
			name: "要求加密",
			server: func(srv *fakeServer) {
				srv.acceptLogin()
				srv.send(protocol.S2CEncryptionRequest, []byte{0x00})
			},
			wantErr: protocol.ErrEncryptionUnsupported,
		},
		{
			name: "未知包ID",
			server: func(srv *fakeServer) {
				srv.acceptLogin()
				srv.send(0x09, nil)
			},
			wantErr: protocol.ErrUnexpectedPacket,
		},
		{
			name: "解压长度不符",
			server: func(srv *fakeServer) {
				srv.acceptLogin()
				srv.send(protocol.S2CSetCompression, varintPayload(0))
				// declares 50 bytes but carries a 2-byte zlib body
				frame, _ := protocol.EncodePacket(&protocol.Packet{ID: 0x02, Payload: []byte{0x01}}, 0)
				_, dataLenSize, _ := protocol.DecodeVarint(frame[1:])
				body := append(protocol.AppendVarint(nil, 50), frame[1+dataLenSize:]...)
				out := append(protocol.AppendVarint(nil, int32(len(body))), body...)
				if _, err := srv.conn.Write(out); err != nil {
					srv.t.Errorf("Server: write failed: %v", err)
				}
			},
			wantErr: protocol.ErrDecompressedSize,
		},
		{
			name: "连接中途断开",
			server: func(srv *fakeServer) {
				srv.acceptLogin()
				_, _ = srv.conn.Write([]byte{0x10, 0x02})
				srv.conn.Close()
			},
			wantErr: protocol.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, srv := newPipeSession(t)
			runServer(t, func() { tt.server(srv) })

			_, err := s.Login(context.Background(), "mcprobe")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() 错误 = %v, 期望 %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginDisconnectReason(t *testing.T) {
	s, srv := newPipeSession(t)
	runServer(t, func() {
		srv.acceptLogin()
		srv.send(protocol.S2CLoginDisconnect, stringPayload(`{"text":"Server is full"}`))
	})

	_, err := s.Login(context.Background(), "mcprobe")
	var disconnect *protocol.DisconnectError
	if !errors.As(err, &disconnect) {
		t.Fatalf("Login() 错误 = %v, 期望 *DisconnectError", err)
	}
	if disconnect.State != protocol.Login || disconnect.Reason != `{"text":"Server is full"}` {
		t.Errorf("DisconnectError = %+v", disconnect)
	}
}

// TestLoginRejectsLongUsername 测试超长用户名在发送任何字节前被拒绝
func TestLoginRejectsLongUsername(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	s := New(client, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	received := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(server)
		received <- data
	}()

	_, err := s.Login(context.Background(), "a_name_over_16_characters_long")
	if !errors.Is(err, protocol.ErrUsernameTooLong) || !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("Login() 错误 = %v, 期望 ErrUsernameTooLong", err)
	}
	if s.State() != protocol.Handshaking {
		t.Errorf("State() = %s, 期望 Handshake", s.State())
	}
	client.Close()

	if data := <-received; len(data) != 0 {
		t.Errorf("服务器收到 %d 字节, 期望 0", len(data))
	}
}

func TestPlayFailures(t *testing.T) {
	tests := []struct {
		name    string
		id      int32
		payload []byte
		wantErr error
	}{
		{"服务器断开", protocol.S2CPlayDisconnect, stringPayload(`{"text":"Kicked"}`), protocol.ErrServerDisconnect},
		{"实体包截断", protocol.S2CSpawnEntity, []byte{0x01, 0x02}, protocol.ErrProtocol},
		{"动画包截断", protocol.S2CEntityAnimation, []byte{0x01}, protocol.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, srv := newPipeSession(t)
			runServer(t, func() {
				srv.acceptLogin()
				srv.sendLoginSuccess("mcprobe")
				srv.send(tt.id, tt.payload)
			})

			if _, err := s.Login(context.Background(), "mcprobe"); err != nil {
				t.Fatalf("Login() 返回错误: %v", err)
			}
			err := s.Play(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Play() 错误 = %v, 期望 %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayRequiresLogin(t *testing.T) {
	s, _ := newPipeSession(t)
	if err := s.Play(context.Background()); !errors.Is(err, protocol.ErrInvalidState) {
		t.Fatalf("Play() 错误 = %v, 期望 ErrInvalidState", err)
	}
}

func TestHandshakeOnlyOnce(t *testing.T) {
	s, srv := newPipeSession(t)
	runServer(t, func() {
		srv.acceptLogin()
		srv.sendLoginSuccess("mcprobe")
	})
	if _, err := s.Login(context.Background(), "mcprobe"); err != nil {
		t.Fatalf("Login() 返回错误: %v", err)
	}
	if _, err := s.Status(context.Background()); !errors.Is(err, protocol.ErrInvalidState) {
		t.Fatalf("Status() 错误 = %v, 期望 ErrInvalidState", err)
	}
}

func TestDialInvalidAddress(t *testing.T) {
	_, err := Dial(context.Background(), "no-port-here")
	if !errors.Is(err, protocol.ErrTransport) {
		t.Fatalf("Dial() 错误 = %v, 期望 ErrTransport", err)
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(context.Background(), addr); !errors.Is(err, protocol.ErrTransport) {
		t.Fatalf("Dial() 错误 = %v, 期望 ErrTransport", err)
	}
}
