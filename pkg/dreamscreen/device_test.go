package dreamscreen_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dreamscreen/dreamscreen-ble/pkg/connector"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

// replyDelay separates a reply from the write that triggered it, as on a real link.
const replyDelay = 20 * time.Millisecond

type fakeConnector struct {
	inbox  chan connector.Datagram
	writes chan string

	lock   sync.Mutex
	closed bool
	// replies maps a command to the frame the device answers it with.
	replies map[string]string
	// current is returned by direct reads.
	current string
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		inbox:   make(chan connector.Datagram, connector.BufferSize),
		writes:  make(chan string, 100),
		replies: make(map[string]string),
	}
}

func (f *fakeConnector) Subscribe(ctx context.Context) error {
	return ctx.Err()
}

func (f *fakeConnector) Receive() <-chan connector.Datagram {
	return f.inbox
}

func (f *fakeConnector) Send(_ context.Context, buffer []byte) error {
	code := string(buffer)
	f.writes <- code
	f.lock.Lock()
	reply, ok := f.replies[code]
	f.lock.Unlock()
	if ok {
		time.AfterFunc(replyDelay, func() { f.deliver(reply, false) })
	}
	return nil
}

func (f *fakeConnector) Read() error {
	f.lock.Lock()
	current := f.current
	f.lock.Unlock()
	if current == "" {
		return errors.New("read not permitted")
	}
	f.deliver(current, false)
	return nil
}

func (f *fakeConnector) deliver(data string, notification bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.closed {
		f.inbox <- connector.Datagram{Data: []byte(data), Notification: notification}
	}
}

func (f *fakeConnector) Close() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbox)
	}
}

func (f *fakeConnector) Notify(data string) {
	f.deliver(data, true)
}

var _ = Describe("Device", func() {
	var (
		conn   *fakeConnector
		device *dreamscreen.Device
		ctx    context.Context
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		conn = newFakeConnector()
		device = dreamscreen.New(conn)
		Expect(device.Connect(ctx)).To(Succeed())
		DeferCleanup(func() {
			device.Disconnect()
			cancel()
		})
	})

	Context("SetMode", func() {
		It("writes the mode opcode", func() {
			Expect(device.SetMode(ctx, "video")).To(Succeed())
			Expect(conn.writes).To(Receive(Equal("#Bw1")))
			Expect(conn.writes).NotTo(Receive())
		})

		It("accepts every mode", func() {
			for i, mode := range dreamscreen.Modes() {
				Expect(device.SetMode(ctx, mode)).To(Succeed())
				Expect(conn.writes).To(Receive(Equal("#Bw" + string(rune('0'+i)))))
			}
		})

		It("rejects unknown modes without sending anything", func() {
			var sent []string
			device.AddListener(dreamscreen.ListenerFuncs{Send: func(code string) { sent = append(sent, code) }})

			err := device.SetMode(ctx, "bogus")
			Expect(errors.Is(err, protocol.ErrInvalidArgument)).To(BeTrue())
			Consistently(conn.writes, 100*time.Millisecond).ShouldNot(Receive())
			Expect(sent).To(BeEmpty())
		})
	})

	Context("SetBrightness", func() {
		DescribeTable("clamps and zero-pads the value",
			func(value int, expected string) {
				Expect(device.SetBrightness(ctx, value)).To(Succeed())
				Expect(conn.writes).To(Receive(Equal(expected)))
			},
			Entry("in range", 42, "#Cw042"),
			Entry("above maximum", 150, "#Cw100"),
			Entry("below minimum", -5, "#Cw000"),
		)
	})

	Context("WriteProp", func() {
		It("sends the value verbatim", func() {
			Expect(device.WriteProp(ctx, dreamscreen.PropMode, "1")).To(Succeed())
			Expect(conn.writes).To(Receive(Equal("#Bw1")))
		})

		It("rejects unknown properties", func() {
			err := device.WriteProp(ctx, "color", "255")
			Expect(errors.Is(err, protocol.ErrInvalidArgument)).To(BeTrue())
		})
	})

	Context("reads", func() {
		It("resolves with the next frame tagged with the command", func() {
			conn.replies["#Bg"] = "#Bg1\r"
			response, err := device.SendRead(ctx, "#Bg")
			Expect(err).NotTo(HaveOccurred())
			Expect(response).To(Equal(&dreamscreen.Response{
				Frame: protocol.Frame{Data: "#Bg1", Unsolicited: false},
				Code:  "#Bg",
			}))
			Expect(conn.writes).To(Receive(Equal("#Bg")))
		})

		It("reads a property by name", func() {
			conn.replies["#Cg"] = "#Cg075\r"
			response, err := device.ReadProp(ctx, dreamscreen.PropBrightness)
			Expect(err).NotTo(HaveOccurred())
			Expect(response.Data).To(Equal("#Cg075"))
			Expect(response.Code).To(Equal("#Cg"))
		})

		It("reads the current response directly", func() {
			conn.current = "#Bg3\r"
			response, err := device.Poll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(response).To(Equal(&dreamscreen.Response{Frame: protocol.Frame{Data: "#Bg3", Unsolicited: false}}))
			Expect(conn.writes).NotTo(Receive())
		})

		It("stops waiting when ctx expires", func() {
			shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err := device.SendRead(shortCtx, "#Bg")
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Context("Send", func() {
		It("returns a future that settles once written", func() {
			future := device.Send("#Bw2", false)
			Eventually(future.Done()).Should(BeClosed())
			frame, err := future.Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(frame).To(BeNil())
		})

		It("fails empty commands immediately", func() {
			future := device.Send("", false)
			Expect(future.Done()).To(BeClosed())
			_, err := future.Result()
			Expect(errors.Is(err, protocol.ErrInvalidArgument)).To(BeTrue())
		})

		It("executes commands in submission order", func() {
			var futures []*dreamscreen.Future
			for i := 0; i < 10; i++ {
				futures = append(futures, device.Send(protocol.WriteCommand('C', protocol.EncodeBrightness(i*10, 0, 100)), false))
			}
			for _, f := range futures {
				Eventually(f.Done()).Should(BeClosed())
				Expect(conn.writes).To(Receive(Equal(f.Code)))
			}
		})
	})

	Context("listeners", func() {
		It("publishes sent commands and received frames", func() {
			sent := make(chan string, 5)
			read := make(chan protocol.Frame, 5)
			device.AddListener(dreamscreen.ListenerFuncs{
				Send: func(code string) { sent <- code },
				Read: func(frame protocol.Frame) { read <- frame },
			})

			Expect(device.SetMode(ctx, "music")).To(Succeed())
			Expect(sent).To(Receive(Equal("#Bw2")))

			conn.Notify("#Bg2\r")
			Eventually(read).Should(Receive(Equal(protocol.Frame{Data: "#Bg2", Unsolicited: true})))
		})

		It("stops publishing to removed listeners", func() {
			sent := make(chan string, 5)
			remove := device.AddListener(dreamscreen.ListenerFuncs{Send: func(code string) { sent <- code }})
			remove()

			Expect(device.SetMode(ctx, "idle")).To(Succeed())
			Expect(sent).NotTo(Receive())
		})

		It("publishes disconnects and fails later commands", func() {
			disconnected := make(chan struct{})
			device.AddListener(dreamscreen.ListenerFuncs{Disconnect: func() { close(disconnected) }})

			conn.Close()
			Eventually(disconnected).Should(BeClosed())

			err := device.SetMode(ctx, "video")
			Expect(errors.Is(err, protocol.ErrNotConnected)).To(BeTrue())
		})
	})
})
