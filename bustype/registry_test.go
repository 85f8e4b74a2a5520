package bustype

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleBus struct {
	Flag  uint8
	Value float64
	Count int32
}

var _ = Describe("Registry", func() {
	var r *Registry

	BeforeEach(func() {
		r = NewRegistry()
	})

	It("should resolve a registered size", func() {
		_, err := r.Register("OutBus", 8)
		Expect(err).NotTo(HaveOccurred())

		size, err := r.ResolveSize("OutBus")

		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(8))
	})

	It("should fail on unknown names", func() {
		_, err := r.ResolveSize("NoSuchBus")

		Expect(err).To(MatchError(ErrUnknownBusType))
	})

	It("should refuse duplicate registrations", func() {
		_, err := r.Register("OutBus", 8)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Register("OutBus", 16)

		Expect(err).To(HaveOccurred())
		size, _ := r.ResolveSize("OutBus")
		Expect(size).To(Equal(8))
	})

	It("should allow zero sized buses", func() {
		_, err := r.Register("Empty", 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.ResolveSize("Empty")).To(Equal(0))
	})

	DescribeTable("should lay out fields with natural alignment",
		func(fields []Field, size int) {
			info, err := r.RegisterLayout("Bus", fields)

			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size).To(Equal(size))
			Expect(r.ResolveSize("Bus")).To(Equal(size))
		},
		Entry("padded double", []Field{
			{Name: "a", Type: "uint8"},
			{Name: "b", Type: "double"},
		}, 16),
		Entry("tail padding", []Field{
			{Name: "a", Type: "int32"},
			{Name: "b", Type: "uint8"},
		}, 8),
		Entry("arrays", []Field{
			{Name: "a", Type: "uint8", Dim: 3},
			{Name: "b", Type: "uint16", Dim: 2},
		}, 8),
		Entry("no padding needed", []Field{
			{Name: "a", Type: "boolean"},
			{Name: "b", Type: "uint8"},
		}, 2),
		Entry("empty", []Field{}, 0),
	)

	It("should lay out nested buses", func() {
		_, err := r.RegisterLayout("Inner", []Field{
			{Name: "x", Type: "single"},
			{Name: "y", Type: "uint8"},
		})
		Expect(err).NotTo(HaveOccurred())

		info, err := r.RegisterLayout("Outer", []Field{
			{Name: "flag", Type: "boolean"},
			{Name: "inner", Type: "Inner", Dim: 2},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size).To(Equal(20))
	})

	It("should fail a layout that uses an unknown type", func() {
		_, err := r.RegisterLayout("Bus", []Field{{Name: "a", Type: "Missing"}})

		Expect(err).To(MatchError(ErrUnknownBusType))
		_, err = r.ResolveSize("Bus")
		Expect(err).To(MatchError(ErrUnknownBusType))
	})

	It("should take the layout of a Go struct", func() {
		info, err := r.RegisterStruct("Sample", sampleBus{})

		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size).To(Equal(24))
		Expect(info.Align).To(Equal(8))
	})

	It("should refuse values without a fixed size", func() {
		_, err := r.RegisterStruct("Bad", struct{ S []byte }{})

		Expect(err).To(HaveOccurred())
	})

	It("should list names", func() {
		_, _ = r.Register("OutBus", 4)

		Expect(r.Names()).To(ContainElements("OutBus", "double", "boolean"))
	})
})
