package bridge_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dreamscreen/dreamscreen-ble/mocks"
	"github.com/dreamscreen/dreamscreen-ble/pkg/bridge"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

type message struct {
	Topic   string
	Payload string
	Retain  bool
}

type fakePublisher struct {
	lock     sync.Mutex
	messages []message
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte, retain bool) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages = append(f.messages, message{Topic: topic, Payload: string(payload), Retain: retain})
	return nil
}

func (f *fakePublisher) Messages() []message {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]message{}, f.messages...)
}

var _ = Describe("Bridge", func() {
	var (
		ctrl       *gomock.Controller
		controller *mocks.DreamScreenController
		publisher  *fakePublisher
		b          *bridge.Bridge
		ctx        context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		controller = mocks.NewDreamScreenController(ctrl)
		publisher = &fakePublisher{}
		b = bridge.New("dreamscreen/", publisher, controller)
		ctx = context.Background()
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Context("events", func() {
		It("publishes sent commands", func() {
			b.OnSend("#Bw1")
			Expect(publisher.Messages()).To(HaveLen(1))
			Expect(publisher.Messages()[0].Topic).To(Equal("dreamscreen/send"))
			Expect(publisher.Messages()[0].Payload).To(MatchJSON(`{"code":"#Bw1"}`))
		})

		It("publishes frames", func() {
			b.OnRead(protocol.Frame{Data: "#Bg1", Unsolicited: true})
			Expect(publisher.Messages()).To(ConsistOf(message{
				Topic:   "dreamscreen/read",
				Payload: `{"data":"#Bg1","unsolicited":true}`,
			}))
		})

		It("publishes a retained disconnect", func() {
			b.OnDisconnect()
			Expect(publisher.Messages()).To(ConsistOf(message{Topic: "dreamscreen/disconnect", Payload: `{}`, Retain: true}))
		})
	})

	Context("commands", func() {
		It("sets the mode", func() {
			controller.EXPECT().SetMode(gomock.Any(), "video").Return(nil)
			Expect(b.Handle(ctx, "dreamscreen/set/mode", []byte("video\n"))).To(Succeed())
		})

		It("sets the brightness", func() {
			controller.EXPECT().SetBrightness(gomock.Any(), 75).Return(nil)
			Expect(b.Handle(ctx, "dreamscreen/set/brightness", []byte("75"))).To(Succeed())
		})

		It("rejects non-numeric brightness", func() {
			err := b.Handle(ctx, "dreamscreen/set/brightness", []byte("bright"))
			Expect(errors.Is(err, protocol.ErrInvalidArgument)).To(BeTrue())
		})

		It("rejects unknown commands", func() {
			err := b.Handle(ctx, "dreamscreen/set/color", []byte("red"))
			Expect(errors.Is(err, protocol.ErrInvalidArgument)).To(BeTrue())
			Expect(b.Handle(ctx, "other/set/mode", []byte("video"))).NotTo(Succeed())
		})

		It("uses a wildcard filter for command topics", func() {
			Expect(b.CommandFilter()).To(Equal("dreamscreen/set/+"))
		})
	})

	Context("with an embedded broker", func() {
		var broker *bridge.Broker

		BeforeEach(func() {
			var err error
			broker, err = bridge.NewBroker("")
			Expect(err).NotTo(HaveOccurred())
			Expect(broker.Start()).To(Succeed())
			DeferCleanup(broker.Close)

			b = bridge.New("dreamscreen", broker, controller)
			Expect(broker.Subscribe(b.CommandFilter(), b.Submit)).To(Succeed())

			runCtx, cancel := context.WithCancel(context.Background())
			go b.Run(runCtx)
			DeferCleanup(cancel)
		})

		It("executes commands published to the broker in order", func() {
			done := make(chan struct{})
			gomock.InOrder(
				controller.EXPECT().SetMode(gomock.Any(), "music").Return(nil),
				controller.EXPECT().SetBrightness(gomock.Any(), 20).DoAndReturn(func(context.Context, int) error {
					close(done)
					return nil
				}),
			)

			Expect(broker.Publish(ctx, "dreamscreen/set/mode", []byte("music"), false)).To(Succeed())
			Expect(broker.Publish(ctx, "dreamscreen/set/brightness", []byte("20"), false)).To(Succeed())
			Eventually(done).Should(BeClosed())
		})

		It("delivers events to subscribers", func() {
			received := make(chan string, 1)
			Expect(broker.Subscribe("dreamscreen/read", func(_ string, payload []byte) {
				received <- string(payload)
			})).To(Succeed())

			b.OnRead(protocol.Frame{Data: "#Cg050"})
			Eventually(received).Should(Receive(MatchJSON(`{"data":"#Cg050","unsolicited":false}`)))
		})
	})
})
