package naming

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DeriveName", func() {
	It("should concatenate prefix and identifier", func() {
		name, err := DeriveName(PrefixFdcFlag, "B12")

		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal(StorageName("fdcFlag_B12")))
		Expect(name.String()).To(Equal("fdcFlag_B12"))
	})

	It("should give distinct names to distinct identifiers", func() {
		ids := []string{"1", "12", "123", "B1", "B12", "b12", "B_12", "B12_"}
		seen := make(map[StorageName]string)

		for _, prefix := range []string{
			PrefixConditionalMsg, PrefixEventFlag,
			PrefixEventData, PrefixFdcFlag,
		} {
			for k := range seen {
				delete(seen, k)
			}

			for _, id := range ids {
				name, err := DeriveName(prefix, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(seen).NotTo(HaveKey(name))
				seen[name] = id
			}
		}
	})

	It("should reject an empty identifier", func() {
		_, err := DeriveName(PrefixEventFlag, "")

		Expect(err).To(MatchError(ErrInvalidIdentifier))
	})

	It("should accept an identifier at the length limit", func() {
		id := strings.Repeat("a", MaxIdentifierLen)

		name, err := DeriveName(PrefixEventData, id)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(name)).To(HavePrefix(PrefixEventData))
	})

	It("should reject an identifier over the length limit", func() {
		id := strings.Repeat("a", MaxIdentifierLen+1)

		_, err := DeriveName(PrefixEventData, id)

		Expect(err).To(MatchError(ErrInvalidIdentifier))
	})

	DescribeTable("should reject characters that are not symbol characters",
		func(id string) {
			_, err := DeriveName(PrefixConditionalMsg, id)
			Expect(err).To(MatchError(ErrInvalidIdentifier))
		},
		Entry("colon", "model:12"),
		Entry("dot", "B.12"),
		Entry("space", "B 12"),
		Entry("dash", "B-12"),
	)
})

var _ = Describe("BuildName", func() {
	It("should join with a dot", func() {
		Expect(BuildName("B12", "busSize")).To(Equal("B12.busSize"))
	})

	It("should return the element when there is no parent", func() {
		Expect(BuildName("", "busSize")).To(Equal("busSize"))
	})
})
