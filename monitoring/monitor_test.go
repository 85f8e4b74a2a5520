package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/blocks/fdc"
	"github.com/sarchlab/ecibridge/eci"
	"github.com/sarchlab/ecibridge/slot"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		target   *MockTarget
		reg      *slot.Registry
		flag     *fdc.Comp
		addr     slot.Address
		m        *Monitor
		handler  http.Handler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		target = NewMockTarget(mockCtrl)
		reg = slot.NewRegistry()

		flag = fdc.MakeBuilder().WithFdcID(3).Build("F1")
		Expect(flag.Configure()).To(Succeed())
		Expect(flag.Start(blocks.StartEnv{Slots: reg})).To(Succeed())
		addr, _ = flag.Flag().Address()

		target.EXPECT().Slots().Return(reg).AnyTimes()
		target.EXPECT().Blocks().Return([]blocks.Block{flag}).AnyTimes()
		target.EXPECT().BetweenSteps(gomock.Any()).
			Do(func(fn func()) { fn() }).AnyTimes()

		m = NewMonitor()
		m.RegisterTarget(target)
		handler = m.Handler()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	serve := func(method, url, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, url, strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	It("should report the current step", func() {
		target.EXPECT().CurrentStep().Return(uint64(5))

		rec := serve(http.MethodGet, "/api/now", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(`{"now":5}`))
	})

	It("should pause and continue", func() {
		target.EXPECT().Pause()
		target.EXPECT().Continue()

		Expect(serve(http.MethodGet, "/api/pause", "").Code).
			To(Equal(http.StatusOK))
		Expect(serve(http.MethodGet, "/api/continue", "").Code).
			To(Equal(http.StatusOK))
	})

	It("should refuse to step unless stepping is enabled", func() {
		rec := serve(http.MethodPost, "/api/step", "")

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should step when stepping is enabled", func() {
		m.WithStepping()
		target.EXPECT().IsPaused().Return(false)
		target.EXPECT().Step()
		target.EXPECT().CurrentStep().Return(uint64(1))

		rec := serve(http.MethodPost, "/api/step", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(`{"now":1}`))
	})

	It("should not step a paused simulation", func() {
		m.WithStepping()
		target.EXPECT().IsPaused().Return(true)

		rec := serve(http.MethodPost, "/api/step", "")

		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("should list blocks with their state and parameters", func() {
		rec := serve(http.MethodGet, "/api/list_blocks", "")

		var rsp []blockRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("F1"))
		Expect(rsp[0].Kind).To(Equal("fdc"))
		Expect(rsp[0].State).To(Equal("Started"))
		Expect(rsp[0].Params[0].Name).To(Equal("fdc_id"))
	})

	It("should answer 404 for an unknown block", func() {
		rec := serve(http.MethodGet, "/api/block/nope", "")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should list published slots", func() {
		rec := serve(http.MethodGet, "/api/slots", "")

		var infos []slot.Info
		Expect(json.Unmarshal(rec.Body.Bytes(), &infos)).To(Succeed())
		Expect(infos).To(HaveLen(1))
		Expect(infos[0].Name).To(Equal("fdcFlag_F1"))
		Expect(infos[0].Address).To(Equal(addr))
	})

	It("should read a slot by address", func() {
		flag.Flag().SetBool(true)

		rec := serve(http.MethodGet, "/api/slot/"+addr.String(), "")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var v SlotValue
		Expect(json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())
		Expect(v.Hex).To(Equal("01"))
		Expect(v.Values).To(Equal([]any{true}))
	})

	It("should write a slot by address", func() {
		rec := serve(http.MethodPut, "/api/slot/"+addr.String(), "01\n")

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(flag.Flag().Bool()).To(BeTrue())
	})

	It("should reject writes of the wrong length", func() {
		rec := serve(http.MethodPut, "/api/slot/"+addr.String(), "0101")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer 404 for stale addresses", func() {
		flag.Terminate()

		Expect(serve(http.MethodGet, "/api/slot/"+addr.String(), "").Code).
			To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodPut, "/api/slot/"+addr.String(), "01").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should serve the ECI table", func() {
		target.EXPECT().ECITable().Return(&eci.Table{
			Flags: []eci.FlagEntry{{FlagID: 3, StatusFlag: addr, SID: "F1"}},
		}, nil)

		rec := serve(http.MethodGet, "/api/eci_table", "")

		var t eci.Table
		Expect(json.Unmarshal(rec.Body.Bytes(), &t)).To(Succeed())
		Expect(t.Flags).To(HaveLen(1))
		Expect(t.Flags[0].StatusFlag).To(Equal(addr))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Steps", 10)
		bar.IncrementFinished(4)

		rec := serve(http.MethodGet, "/api/progress", "")
		Expect(rec.Body.String()).To(ContainSubstring(`"finished":4`))

		m.CompleteProgressBar(bar)

		rec = serve(http.MethodGet, "/api/progress", "")
		Expect(rec.Body.String()).To(Equal("[]"))
	})

	It("should serve the index page", func() {
		rec := serve(http.MethodGet, "/", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})
})
