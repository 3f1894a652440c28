package protocol_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

var _ = Describe("ParseFrame", func() {
	It("strips the terminator", func() {
		frame := protocol.ParseFrame([]byte("#Bg1\r"), false)
		Expect(frame).To(Equal(protocol.Frame{Data: "#Bg1", Unsolicited: false}))
	})

	It("drops everything after the first terminator", func() {
		frame := protocol.ParseFrame([]byte("#Bg1\r#Cg050\r"), true)
		Expect(frame.Data).To(Equal("#Bg1"))
		Expect(frame.Unsolicited).To(BeTrue())
	})

	It("keeps chunks without a terminator intact", func() {
		frame := protocol.ParseFrame([]byte("#Bg"), true)
		Expect(frame.Data).To(Equal("#Bg"))
	})

	It("returns an empty frame for a bare terminator", func() {
		Expect(protocol.ParseFrame([]byte("\r"), false).Data).To(BeEmpty())
		Expect(protocol.ParseFrame(nil, false).Data).To(BeEmpty())
	})
})
