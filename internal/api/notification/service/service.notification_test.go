package notifsvc

import (
	"encoding/json"
	"testing"

	notifmodels "vendor_compliance/internal/api/notification/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakePusher ghi lại các lần push để kiểm tra bước phân phối realtime
type fakePusher struct {
	userIDs  []string
	payloads [][]byte
}

func (f *fakePusher) Send(userID string, payload []byte) {
	f.userIDs = append(f.userIDs, userID)
	f.payloads = append(f.payloads, payload)
}

func TestPush_GuiDungKenhNguoiNhan(t *testing.T) {
	fake := &fakePusher{}
	service := &NotificationService{pusher: fake}

	recipientID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()
	notification := notifmodels.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifmodels.TypeApproval,
		Title:       "Tài liệu được duyệt",
	}

	service.push(notification)

	if len(fake.userIDs) != 1 {
		t.Fatalf("Phải push đúng 1 lần, nhận được %d", len(fake.userIDs))
	}
	if fake.userIDs[0] != recipientID.Hex() {
		t.Errorf("Kênh push phải là %s, nhận được %s", recipientID.Hex(), fake.userIDs[0])
	}

	var envelope realtimeEnvelope
	if err := json.Unmarshal(fake.payloads[0], &envelope); err != nil {
		t.Fatalf("Payload phải là JSON hợp lệ: %v", err)
	}
	if envelope.Event != "notification" {
		t.Errorf("Event phải là notification, nhận được %s", envelope.Event)
	}
	if envelope.Data.ID != notification.ID {
		t.Errorf("Data phải mang đúng thông báo, nhận được ID %s", envelope.Data.ID.Hex())
	}
	if envelope.Data.SenderID != senderID {
		t.Errorf("Data phải giữ người gửi %s, nhận được %s", senderID.Hex(), envelope.Data.SenderID.Hex())
	}
}

func TestPush_KhongCoPusherKhongPanic(t *testing.T) {
	// Service chạy không gắn realtime: push là no-op, việc lưu DB
	// không bao giờ phụ thuộc vào bước này
	service := &NotificationService{}

	service.push(notifmodels.Notification{
		RecipientID: primitive.NewObjectID(),
		Type:        notifmodels.TypeSystem,
	})
}
