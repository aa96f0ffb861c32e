package equipment_test

import (
	"encoding/json"

	errors "github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const validBus = `{"busName":"B1","location":"North","voltagePower":"150","nominalKV":"150"}`

var _ = Describe("Kind registry", func() {
	It("registers fifteen kinds with distinct tags", func() {
		seen := map[equipment.Kind]bool{}
		for _, d := range equipment.All() {
			Expect(seen[d.Kind]).To(BeFalse())
			seen[d.Kind] = true
			Expect(d.New()).NotTo(BeNil())
			Expect(d.Plural).NotTo(BeEmpty())
		}
		Expect(seen).To(HaveLen(15))
	})

	It("rejects unknown tags", func() {
		_, err := equipment.Lookup("substation")
		Expect(errors.ErrUnknownDataType.Is(err)).To(BeTrue())
	})

	It("lists attribute names without meta fields", func() {
		fields := equipment.MustLookup(equipment.KindBus).Fields()
		Expect(fields).To(ContainElements("busName", "location", "voltagePower", "nominalKV", "imageUrl"))
		Expect(fields).NotTo(ContainElement("id"))
		Expect(fields).NotTo(ContainElement("createdBy"))
	})
})

var _ = Describe("Decode", func() {
	bus := equipment.MustLookup(equipment.KindBus)

	It("decodes a complete bus", func() {
		rec, err := bus.Decode([]byte(validBus))
		Expect(err).NotTo(HaveOccurred())
		b := rec.(*equipment.Bus)
		Expect(b.BusName).To(Equal("B1"))
		Expect(b.NominalKV).To(Equal("150"))
		Expect(b.ImageURL).To(BeNil())
	})

	It("ignores client supplied meta values", func() {
		rec, err := bus.Decode([]byte(`{"id":99,"createdBy":"x@y","busName":"B1","location":"N","voltagePower":"1","nominalKV":"1"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Meta().ID).To(BeZero())
		Expect(rec.Meta().CreatedBy).To(BeEmpty())
	})

	It("reports missing required fields", func() {
		_, err := bus.Decode([]byte(`{"busName":"B1"}`))
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeMissingFields))
		details := appErr.Details.(errors.ValidationErrors)
		fields := []string{}
		for _, d := range details.Errors {
			fields = append(fields, d.Field)
		}
		Expect(fields).To(ConsistOf("location", "voltagePower", "nominalKV"))
	})

	It("rejects unknown attributes", func() {
		_, err := bus.Decode([]byte(`{"busName":"B1","location":"N","voltagePower":"1","nominalKV":"1","colour":"red"}`))
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidDataFormat))
		Expect(appErr.GetDetailedMessage()).To(ContainSubstring("colour"))
	})

	It("rejects values of the wrong type", func() {
		_, err := bus.Decode([]byte(`{"busName":42,"location":"N","voltagePower":"1","nominalKV":"1"}`))
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidDataFormat))
		Expect(appErr.StatusCode).To(Equal(400))
	})

	It("rejects malformed JSON", func() {
		_, err := bus.Decode([]byte(`{"busName":`))
		Expect(errors.ErrInvalidDataFormat.Is(err)).To(BeTrue())
	})

	It("requires an image for single line diagrams", func() {
		sld := equipment.MustLookup(equipment.KindSingleLineDiagram)
		_, err := sld.Decode([]byte(`{"diagramName":"SLD-1","substation":"Main"}`))
		appErr, _ := errors.IsAppError(err)
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.Code).To(Equal(errors.ErrCodeMissingFields))
	})

	It("rejects values outside an allowed set", func() {
		ibr := equipment.MustLookup(equipment.KindIBR)
		_, err := ibr.Decode([]byte(`{"ibrName":"PV-1","busName":"B1","technology":"tidal","ratedMW":"50"}`))
		appErr, _ := errors.IsAppError(err)
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.Code).To(Equal(errors.ErrCodeValidationFailed))
	})
})

var _ = Describe("Merge", func() {
	bus := equipment.MustLookup(equipment.KindBus)

	var current equipment.Record

	BeforeEach(func() {
		var err error
		current, err = bus.Decode([]byte(validBus))
		Expect(err).NotTo(HaveOccurred())
		current.Meta().ID = 7
		current.Meta().CreatedBy = "admin@example.com"
	})

	It("applies changed attributes and reports a diff", func() {
		next, changes, err := bus.Merge(current, map[string]json.RawMessage{
			"location": json.RawMessage(`"South"`),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.(*equipment.Bus).Location).To(Equal("South"))
		Expect(next.(*equipment.Bus).BusName).To(Equal("B1"))
		Expect(next.Meta().ID).To(Equal(int64(7)))
		Expect(changes).To(HaveLen(1))
		Expect(changes[0].String()).To(Equal(`location: "North" -> "South"`))
	})

	It("ignores meta fields in the patch", func() {
		next, changes, err := bus.Merge(current, map[string]json.RawMessage{
			"id":        json.RawMessage(`1`),
			"createdBy": json.RawMessage(`"mallory@example.com"`),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(changes).To(BeEmpty())
		Expect(next.Meta().ID).To(Equal(int64(7)))
		Expect(next.Meta().CreatedBy).To(Equal("admin@example.com"))
	})

	It("fails validation when a required field is cleared", func() {
		_, _, err := bus.Merge(current, map[string]json.RawMessage{"busName": json.RawMessage(`""`)})
		appErr, _ := errors.IsAppError(err)
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.Code).To(Equal(errors.ErrCodeMissingFields))
	})

	It("rejects unknown attributes in the patch", func() {
		_, _, err := bus.Merge(current, map[string]json.RawMessage{"voltage": json.RawMessage(`"1"`)})
		Expect(errors.ErrInvalidDataFormat.Is(err)).To(BeTrue())
	})
})

var _ = Describe("Matches", func() {
	It("matches case-insensitive substrings", func() {
		rec, err := equipment.MustLookup(equipment.KindBus).Decode([]byte(validBus))
		Expect(err).NotTo(HaveOccurred())
		Expect(equipment.Matches(rec, map[string]string{"location": "nor"})).To(BeTrue())
		Expect(equipment.Matches(rec, map[string]string{"location": "south"})).To(BeFalse())
		Expect(equipment.Matches(rec, nil)).To(BeTrue())
	})
})
