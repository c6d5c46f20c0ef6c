package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"vendor_compliance/internal/logger"
)

const (
	// handshakeGrace là thời gian chờ message xác thực đầu tiên.
	// Kết nối chưa xác thực sau thời gian này sẽ bị đóng.
	handshakeGrace = 5 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AuthenticateFunc xác thực message handshake đầu tiên của kết nối websocket.
// Trả về userID và role nếu token hợp lệ.
type AuthenticateFunc func(ctx context.Context, token string) (userID string, role string, err error)

// handshakeMessage là message đầu tiên client gửi lên sau khi kết nối
type handshakeMessage struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// handshakeAck là message server trả về sau khi xác thực thành công
type handshakeAck struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Handler xử lý kết nối websocket realtime
type Handler struct {
	registry     *ChannelRegistry
	authenticate AuthenticateFunc
	upgrader     websocket.FastHTTPUpgrader
}

// NewHandler tạo mới một websocket Handler
func NewHandler(registry *ChannelRegistry, authenticate AuthenticateFunc) *Handler {
	return &Handler{
		registry:     registry,
		authenticate: authenticate,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cho phép mọi origin, CORS đã được kiểm soát ở tầng HTTP
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool { return true },
		},
	}
}

// Serve nâng cấp kết nối HTTP lên websocket và xử lý vòng đời kết nối.
//
// Parameters:
// - c: Fiber context
//
// Returns:
// - error: Lỗi nếu quá trình upgrade thất bại
func (h *Handler) Serve(c fiber.Ctx) error {
	err := h.upgrader.Upgrade(c.RequestCtx(), func(conn *websocket.Conn) {
		h.handleConnection(conn)
	})
	if err != nil {
		logger.GetAppLogger().WithError(err).Warn("Upgrade websocket thất bại")
		return fiber.ErrUpgradeRequired
	}
	return nil
}

// handleConnection xử lý một kết nối websocket từ lúc handshake đến lúc đóng
func (h *Handler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	// Chờ message handshake đầu tiên trong thời gian grace.
	// Kết nối không gửi handshake hợp lệ trong thời gian này sẽ bị đóng.
	conn.SetReadDeadline(time.Now().Add(handshakeGrace))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var hs handshakeMessage
	if err := json.Unmarshal(raw, &hs); err != nil || hs.Token == "" {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "handshake không hợp lệ"),
			time.Now().Add(writeWait))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeGrace)
	userID, role, err := h.authenticate(ctx, hs.Token)
	cancel()
	if err != nil {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"claim_user_id": hs.UserID,
			"error":         err.Error(),
		}).Warn("Xác thực websocket thất bại")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "xác thực thất bại"),
			time.Now().Add(writeWait))
		return
	}

	ch := NewChannel(userID, role)
	h.registry.Register(ch)
	defer h.registry.Unregister(ch)

	// Báo cho client biết handshake thành công
	ack, _ := json.Marshal(handshakeAck{Type: "connected", UserID: userID})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
		return
	}

	// Writer goroutine: đọc từ hàng đợi của kênh và ghi xuống kết nối
	go h.writePump(conn, ch)

	// Reader loop: giữ kết nối sống qua pong, phát hiện client đóng
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump ghi message từ hàng đợi của kênh xuống kết nối, kèm ping định kỳ
func (h *Handler) writePump(conn *websocket.Conn, ch *Channel) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-ch.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.registry.Unregister(ch)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.registry.Unregister(ch)
				return
			}
		case <-ch.Done():
			return
		}
	}
}
