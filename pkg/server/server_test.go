package server_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dreamscreen/dreamscreen-ble/mocks"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
	"github.com/dreamscreen/dreamscreen-ble/pkg/server"
)

var _ = Describe("Server", func() {
	var (
		ctrl       *gomock.Controller
		controller *mocks.DreamScreenController
		s          *server.Server
	)

	sendRequest := func(method, path string, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		return rr
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		controller = mocks.NewDreamScreenController(ctrl)
		s = server.New(controller)
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Context("mode", func() {
		It("sets the mode", func() {
			controller.EXPECT().SetMode(gomock.Any(), "video").Return(nil)
			rr := sendRequest(http.MethodPost, "/api/mode", `{"mode":"video"}`)
			Expect(rr.Code).To(Equal(http.StatusNoContent))
		})

		It("rejects invalid modes", func() {
			controller.EXPECT().SetMode(gomock.Any(), "bogus").Return(protocol.InvalidArgument("invalid mode: bogus"))
			rr := sendRequest(http.MethodPost, "/api/mode", `{"mode":"bogus"}`)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(rr.Body.String()).To(MatchJSON(`{"error":"invalid argument: invalid mode: bogus"}`))
		})

		It("lists modes", func() {
			rr := sendRequest(http.MethodGet, "/api/modes", "")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"modes":["idle","video","music","ambientStatic","identify","ambientShow"]}`))
		})
	})

	Context("brightness", func() {
		It("sets the brightness", func() {
			controller.EXPECT().SetBrightness(gomock.Any(), 150).Return(nil)
			rr := sendRequest(http.MethodPost, "/api/brightness", `{"value":150}`)
			Expect(rr.Code).To(Equal(http.StatusNoContent))
		})

		It("requires a value", func() {
			rr := sendRequest(http.MethodPost, "/api/brightness", `{}`)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects malformed bodies", func() {
			rr := sendRequest(http.MethodPost, "/api/brightness", `{"value":"high"}`)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("commands", func() {
		It("returns the response frame for reads", func() {
			controller.EXPECT().SendRead(gomock.Any(), "#Bg").Return(&dreamscreen.Response{
				Frame: protocol.Frame{Data: "#Bg1"},
				Code:  "#Bg",
			}, nil)
			rr := sendRequest(http.MethodPost, "/api/command", `{"code":"#Bg","read":true}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"code":"#Bg","data":"#Bg1","unsolicited":false}`))
		})

		It("returns no content for writes", func() {
			controller.EXPECT().SendWrite(gomock.Any(), "#Bw1").Return(nil)
			rr := sendRequest(http.MethodPost, "/api/command", `{"code":"#Bw1"}`)
			Expect(rr.Code).To(Equal(http.StatusNoContent))
		})

		It("reads properties by name", func() {
			controller.EXPECT().ReadProp(gomock.Any(), "brightness").Return(&dreamscreen.Response{
				Frame: protocol.Frame{Data: "#Cg050", Unsolicited: true},
				Code:  "#Cg",
			}, nil)
			rr := sendRequest(http.MethodGet, "/api/props/brightness", "")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"code":"#Cg","data":"#Cg050","unsolicited":true}`))
		})

		It("reads the current response directly", func() {
			controller.EXPECT().Poll(gomock.Any()).Return(&dreamscreen.Response{
				Frame: protocol.Frame{Data: "#Bg1"},
			}, nil)
			rr := sendRequest(http.MethodGet, "/api/response", "")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"code":"","data":"#Bg1","unsolicited":false}`))
		})

		It("reports direct reads the connector cannot perform", func() {
			controller.EXPECT().Poll(gomock.Any()).Return(nil, protocol.InvalidArgument("connector does not support direct reads"))
			rr := sendRequest(http.MethodGet, "/api/response", "")
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	DescribeTable("maps errors to status codes",
		func(err error, status int) {
			controller.EXPECT().SendWrite(gomock.Any(), "#Bw1").Return(err)
			rr := sendRequest(http.MethodPost, "/api/command", `{"code":"#Bw1"}`)
			Expect(rr.Code).To(Equal(status))
		},
		Entry("not connected", protocol.ErrNotConnected, http.StatusServiceUnavailable),
		Entry("disconnected", protocol.ErrDisconnected, http.StatusServiceUnavailable),
		Entry("write failure", protocol.WriteError(fmt.Errorf("gatt error")), http.StatusBadGateway),
	)
})
