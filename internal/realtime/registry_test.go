package realtime

import (
	"fmt"
	"sync"
	"testing"
)

func drain(ch *Channel) [][]byte {
	var out [][]byte
	for {
		select {
		case payload := <-ch.Outbox():
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestRegistry_SendFanOut(t *testing.T) {
	r := NewChannelRegistry()

	ch1 := NewChannel("user-1", "vendor")
	ch2 := NewChannel("user-1", "vendor")
	r.Register(ch1)
	r.Register(ch2)

	r.Send("user-1", []byte("hello"))

	if got := len(drain(ch1)); got != 1 {
		t.Errorf("Kênh 1 phải nhận được 1 message, nhận được %d", got)
	}
	if got := len(drain(ch2)); got != 1 {
		t.Errorf("Kênh 2 phải nhận được 1 message, nhận được %d", got)
	}
}

func TestRegistry_SendToUnknownUserIsNoop(t *testing.T) {
	r := NewChannelRegistry()

	// Không panic, không lỗi khi user không có kênh nào
	r.Send("user-khong-ton-tai", []byte("hello"))

	if r.CountUsers() != 0 {
		t.Errorf("Registry phải rỗng, có %d user", r.CountUsers())
	}
}

func TestRegistry_UnregisterRemovesChannel(t *testing.T) {
	r := NewChannelRegistry()

	ch := NewChannel("user-1", "consultant")
	r.Register(ch)
	if r.CountChannels("user-1") != 1 {
		t.Fatalf("User phải có 1 kênh sau khi đăng ký")
	}

	r.Unregister(ch)
	if r.CountChannels("user-1") != 0 {
		t.Errorf("User phải có 0 kênh sau khi gỡ đăng ký")
	}

	// Gỡ đăng ký lần hai phải an toàn
	r.Unregister(ch)

	// Gửi sau khi gỡ không được panic
	r.Send("user-1", []byte("sau khi đóng"))
}

func TestChannel_DropOldestWhenFull(t *testing.T) {
	ch := NewChannel("user-1", "vendor")

	total := sendQueueSize + 5
	for i := 0; i < total; i++ {
		ch.Send([]byte(fmt.Sprintf("msg-%d", i)))
	}

	got := drain(ch)
	if len(got) != sendQueueSize {
		t.Fatalf("Hàng đợi phải giữ đúng %d message, có %d", sendQueueSize, len(got))
	}

	// Message cũ nhất đã bị loại, message cuối cùng phải còn
	last := string(got[len(got)-1])
	want := fmt.Sprintf("msg-%d", total-1)
	if last != want {
		t.Errorf("Message mới nhất phải là %s, nhận được %s", want, last)
	}
}

func TestRegistry_SendToRole(t *testing.T) {
	r := NewChannelRegistry()

	chAdmin := NewChannel("admin-1", "admin")
	chConsultant := NewChannel("consultant-1", "consultant")
	chVendor := NewChannel("vendor-1", "vendor")
	r.Register(chAdmin)
	r.Register(chConsultant)
	r.Register(chVendor)

	r.SendToRole("admin", []byte("chờ duyệt đăng nhập"))

	if got := len(drain(chAdmin)); got != 1 {
		t.Errorf("Kênh admin phải nhận được 1 message, nhận được %d", got)
	}
	if got := len(drain(chConsultant)); got != 0 {
		t.Errorf("Kênh consultant không được nhận message, nhận được %d", got)
	}
	if got := len(drain(chVendor)); got != 0 {
		t.Errorf("Kênh vendor không được nhận message, nhận được %d", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewChannelRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%5)
			ch := NewChannel(userID, "vendor")
			r.Register(ch)
			r.Send(userID, []byte("payload"))
			r.Unregister(ch)
		}(i)
	}
	wg.Wait()

	if r.CountUsers() != 0 {
		t.Errorf("Registry phải rỗng sau khi tất cả kênh gỡ đăng ký, còn %d user", r.CountUsers())
	}
}
