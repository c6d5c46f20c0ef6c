// Package realtime quản lý các kênh websocket theo từng user.
// Một user có thể mở nhiều kênh cùng lúc (nhiều tab, nhiều thiết bị),
// mỗi kênh có hàng đợi gửi riêng với giới hạn kích thước.
package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"

	"vendor_compliance/internal/logger"
)

// sendQueueSize là kích thước hàng đợi gửi của mỗi kênh.
// Khi hàng đợi đầy, message cũ nhất bị loại bỏ để nhường chỗ cho message mới.
const sendQueueSize = 16

// Channel đại diện cho một kết nối realtime của user.
// Mỗi kênh có hàng đợi gửi riêng, writer goroutine đọc từ hàng đợi này.
type Channel struct {
	UserID string
	Role   string

	send chan []byte
	once sync.Once
	done chan struct{}
}

// NewChannel tạo mới một Channel cho user với role cho trước
func NewChannel(userID string, role string) *Channel {
	return &Channel{
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Send đưa payload vào hàng đợi gửi của kênh.
// Khi hàng đợi đầy, message cũ nhất bị loại bỏ (người nhận realtime
// chỉ cần trạng thái mới nhất, dữ liệu gốc đã được lưu ở DB).
func (ch *Channel) Send(payload []byte) {
	select {
	case <-ch.done:
		return
	default:
	}

	for {
		select {
		case ch.send <- payload:
			return
		default:
			// Hàng đợi đầy, loại bỏ message cũ nhất rồi thử lại
			select {
			case <-ch.send:
			default:
			}
		}
	}
}

// Outbox trả về channel để writer goroutine đọc message cần gửi
func (ch *Channel) Outbox() <-chan []byte {
	return ch.send
}

// Done trả về channel báo hiệu kênh đã đóng
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

// Close đóng kênh, idempotent (gọi nhiều lần an toàn)
func (ch *Channel) Close() {
	ch.once.Do(func() {
		close(ch.done)
	})
}

// ChannelRegistry quản lý map user → danh sách kênh đang mở.
// An toàn khi truy cập đồng thời từ nhiều goroutine.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[string]map[*Channel]struct{}
}

// NewChannelRegistry tạo mới một ChannelRegistry rỗng
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		channels: make(map[string]map[*Channel]struct{}),
	}
}

// Register đăng ký một kênh cho user
func (r *ChannelRegistry) Register(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, exists := r.channels[ch.UserID]
	if !exists {
		set = make(map[*Channel]struct{})
		r.channels[ch.UserID] = set
	}
	set[ch] = struct{}{}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"user_id":  ch.UserID,
		"role":     ch.Role,
		"channels": len(set),
	}).Debug("Đăng ký kênh realtime")
}

// Unregister gỡ một kênh khỏi registry và đóng kênh.
// Gọi nhiều lần với cùng một kênh là an toàn.
func (r *ChannelRegistry) Unregister(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, exists := r.channels[ch.UserID]
	if exists {
		delete(set, ch)
		if len(set) == 0 {
			delete(r.channels, ch.UserID)
		}
	}
	ch.Close()
}

// Send gửi payload đến tất cả các kênh đang mở của user.
// Nếu user không có kênh nào, hàm không làm gì (user offline vẫn
// nhận được thông báo qua DB khi online trở lại).
func (r *ChannelRegistry) Send(userID string, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, exists := r.channels[userID]
	if !exists {
		return
	}
	for ch := range set {
		ch.Send(payload)
	}
}

// SendToRole gửi payload đến tất cả các kênh của các user có role cho trước
func (r *ChannelRegistry) SendToRole(role string, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, set := range r.channels {
		for ch := range set {
			if ch.Role == role {
				ch.Send(payload)
			}
		}
	}
}

// CountChannels đếm số kênh đang mở của user
func (r *ChannelRegistry) CountChannels(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID])
}

// CountUsers đếm số user đang có ít nhất một kênh mở
func (r *ChannelRegistry) CountUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
