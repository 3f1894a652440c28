package ble_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dreamscreen/dreamscreen-ble/mocks"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

var _ = Describe("Filter", func() {
	It("scans by service UUID by default", func() {
		Expect(ble.Filter(false, "Living Room")).To(Equal(ble.ScanFilter{ServiceUUID: ble.ServiceUUID}))
	})

	It("scans by local name when requested", func() {
		Expect(ble.Filter(true, "Living Room")).To(Equal(ble.ScanFilter{LocalName: "Living Room"}))
		Expect(ble.Filter(true, "")).To(Equal(ble.ScanFilter{LocalName: ble.DefaultLocalName}))
	})
})

var _ = Describe("Connection", func() {
	var (
		ctrl         *gomock.Controller
		adapter      *mocks.BLEAdapter
		device       *mocks.BLEDevice
		service      *mocks.BLEService
		command      *mocks.BLECharacteristic
		response     *mocks.BLECharacteristic
		disconnected chan struct{}
		beacon       *ble.Beacon
		ctx          context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		adapter = mocks.NewBLEAdapter(ctrl)
		device = mocks.NewBLEDevice(ctrl)
		service = mocks.NewBLEService(ctrl)
		command = mocks.NewBLECharacteristic(ctrl)
		response = mocks.NewBLECharacteristic(ctrl)
		disconnected = make(chan struct{})
		beacon = &ble.Beacon{Address: "AA:BB:CC:DD:EE:FF", LocalName: "DreamScreen", Connectable: true}
		ctx = context.Background()
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	expectDiscovery := func() {
		adapter.EXPECT().Connect(gomock.Any(), beacon).Return(device, nil)
		device.EXPECT().Service(gomock.Any(), ble.ServiceUUID).Return(service, nil)
		service.EXPECT().Characteristic(ble.CommandCharUUID).Return(command, nil)
		service.EXPECT().Characteristic(ble.ResponseCharUUID).Return(response, nil)
		command.EXPECT().MTU(gomock.Any()).Return(23, nil)
		device.EXPECT().Disconnected().Return(disconnected).AnyTimes()
	}

	connect := func() *ble.Connection {
		conn, err := ble.NewConnectionFromBeacon(ctx, beacon, adapter)
		Expect(err).NotTo(HaveOccurred())
		return conn
	}

	Context("connecting", func() {
		It("scans with the filter before connecting", func() {
			filter := ble.Filter(false, "")
			adapter.EXPECT().ScanBeacon(gomock.Any(), filter).Return(beacon, nil)
			expectDiscovery()
			device.EXPECT().Close().Return(nil)

			conn, err := ble.NewConnection(ctx, filter, adapter)
			Expect(err).NotTo(HaveOccurred())
			Expect(conn.Beacon()).To(Equal(beacon))
			conn.Close()
		})

		It("returns the scan error", func() {
			scanErr := errors.New("adapter powered off")
			adapter.EXPECT().ScanBeacon(gomock.Any(), gomock.Any()).Return(nil, scanErr)

			_, err := ble.NewConnection(ctx, ble.Filter(true, ""), adapter)
			Expect(err).To(MatchError(scanErr))
		})

		It("rejects beacons that are not connectable", func() {
			beacon.Connectable = false
			_, err := ble.NewConnectionFromBeacon(ctx, beacon, adapter)
			Expect(err).To(MatchError(ble.ErrBeaconNotConnectable))
		})

		It("closes the device when the service is missing", func() {
			adapter.EXPECT().Connect(gomock.Any(), beacon).Return(device, nil)
			device.EXPECT().Service(gomock.Any(), ble.ServiceUUID).Return(nil, protocol.ErrServiceNotFound)
			device.EXPECT().Close().Return(nil)

			_, err := ble.NewConnectionFromBeacon(ctx, beacon, adapter)
			Expect(errors.Is(err, protocol.ErrServiceNotFound)).To(BeTrue())
		})

		It("closes the device when a characteristic is missing", func() {
			adapter.EXPECT().Connect(gomock.Any(), beacon).Return(device, nil)
			device.EXPECT().Service(gomock.Any(), ble.ServiceUUID).Return(service, nil)
			service.EXPECT().Characteristic(ble.CommandCharUUID).Return(command, nil)
			service.EXPECT().Characteristic(ble.ResponseCharUUID).Return(nil, protocol.ErrCharacteristicNotFound)
			device.EXPECT().Close().Return(nil)

			_, err := ble.NewConnectionFromBeacon(ctx, beacon, adapter)
			Expect(errors.Is(err, protocol.ErrCharacteristicNotFound)).To(BeTrue())
		})
	})

	Context("connected", func() {
		var conn *ble.Connection

		BeforeEach(func() {
			expectDiscovery()
			device.EXPECT().Close().Return(nil).Times(1)
			conn = connect()
			DeferCleanup(conn.Close)
		})

		It("delivers notifications once subscribed", func() {
			var callback func([]byte)
			response.EXPECT().Subscribe(gomock.Any()).DoAndReturn(func(cb func([]byte)) error {
				callback = cb
				return nil
			}).Times(1)

			Expect(conn.Subscribe(ctx)).To(Succeed())
			Expect(conn.Subscribe(ctx)).To(Succeed())

			buf := []byte("#Bg1\r")
			callback(buf)
			buf[0] = 'X'
			Eventually(conn.Receive()).Should(Receive(Equal(connector.Datagram{Data: []byte("#Bg1\r"), Notification: true})))
		})

		It("reports subscription failures", func() {
			response.EXPECT().Subscribe(gomock.Any()).Return(errors.New("gatt error"))
			Expect(conn.Subscribe(ctx)).NotTo(Succeed())
		})

		It("delivers direct reads as solicited datagrams", func() {
			response.EXPECT().Read().Return([]byte("#Cg050\r"), nil)
			Expect(conn.Read()).To(Succeed())
			Eventually(conn.Receive()).Should(Receive(Equal(connector.Datagram{Data: []byte("#Cg050\r"), Notification: false})))
		})

		It("writes commands in a single write", func() {
			command.EXPECT().Write([]byte("#Bw1")).Return(4, nil)
			Expect(conn.Send(ctx, []byte("#Bw1"))).To(Succeed())
		})

		It("reports short writes", func() {
			command.EXPECT().Write(gomock.Any()).Return(2, nil)
			Expect(conn.Send(ctx, []byte("#Bw1"))).NotTo(Succeed())
		})

		It("rejects commands longer than the MTU allows", func() {
			Expect(conn.Send(ctx, make([]byte, 21))).NotTo(Succeed())
		})

		It("closes the inbox when the peripheral disconnects", func() {
			close(disconnected)
			Eventually(conn.Receive()).Should(BeClosed())
		})

		It("closes the device only once", func() {
			conn.Close()
			conn.Close()
			Expect(conn.Receive()).To(BeClosed())
		})
	})
})
