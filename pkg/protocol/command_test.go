package protocol_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

var _ = Describe("Commands", func() {
	Describe("WriteCommand", func() {
		It("builds a write command", func() {
			Expect(protocol.WriteCommand('B', "1")).To(Equal("#Bw1"))
			Expect(protocol.WriteCommand('C', "042")).To(Equal("#Cw042"))
		})

		It("allows an empty value", func() {
			Expect(protocol.WriteCommand('B', "")).To(Equal("#Bw"))
		})
	})

	Describe("ReadCommand", func() {
		It("builds a read command", func() {
			Expect(protocol.ReadCommand('B')).To(Equal("#Bg"))
		})
	})

	Describe("EncodeBrightness", func() {
		It("zero-pads values in range", func() {
			Expect(protocol.EncodeBrightness(0, 0, 100)).To(Equal("000"))
			Expect(protocol.EncodeBrightness(7, 0, 100)).To(Equal("007"))
			Expect(protocol.EncodeBrightness(55, 0, 100)).To(Equal("055"))
			Expect(protocol.EncodeBrightness(100, 0, 100)).To(Equal("100"))
		})

		It("clamps values above the maximum", func() {
			Expect(protocol.EncodeBrightness(150, 0, 100)).To(Equal("100"))
		})

		It("clamps values below the minimum", func() {
			Expect(protocol.EncodeBrightness(-5, 0, 100)).To(Equal("000"))
			Expect(protocol.EncodeBrightness(3, 10, 100)).To(Equal("010"))
		})
	})
})
