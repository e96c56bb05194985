package dimension

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMetadataMerge(t *testing.T) {
	var md Metadata
	md.Merge("PART NO: BR-100 | REV B\nTitle: Mounting Bracket\nmaterial : EN8 Steel")
	md.Merge("Part Number: other\nHeat Treatment: Case harden 0.5 | HRC 58\nSurface Coating: Zinc plated\nMaterial: Aluminium")

	want := Metadata{
		PartNumber:     "BR-100",
		PartName:       "Mounting Bracket",
		Material:       "EN8 Steel",
		HeatTreatment:  "Case harden 0.5",
		SurfaceCoating: "Zinc plated",
	}
	if d := cmp.Diff(want, md); d != "" {
		t.Errorf("Merge (-want +got):\n%s", d)
	}
}

func TestMetadataMergeSkipsEmptyValues(t *testing.T) {
	var md Metadata
	md.Merge("Coating:   | n/a")
	if md.SurfaceCoating != "" {
		t.Fatalf("empty value kept: %q", md.SurfaceCoating)
	}
	md.Merge("Coating: Anodised")
	if md.SurfaceCoating != "Anodised" {
		t.Errorf("later page: got %q", md.SurfaceCoating)
	}
}

func TestMetadataMergeLaterValueOnSamePage(t *testing.T) {
	var md Metadata
	md.Merge("Material: | Rev B\nPart No:\nMaterial: EN8\nPart No: BR-7")
	if md.Material != "EN8" {
		t.Errorf("Material: got %q, want EN8", md.Material)
	}
	if md.PartNumber != "BR-7" {
		t.Errorf("PartNumber: got %q, want BR-7", md.PartNumber)
	}
}
