package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %q got %q", status, got)
		}
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"role farmer", UserRoleFarmer.IsValid()},
		{"job type seasonal", JobType("seasonal").IsValid()},
		{"category equipment", JobCategory("equipment-operation").IsValid()},
		{"unit bunch", ProductUnitBunch.IsValid()},
		{"payment cod", PaymentMethod("cash_on_delivery").IsValid()},
		{"application hired", ApplicationHired.IsValid()},
		{"article seasonal", ArticleCategory("seasonal").IsValid()},
		{"article archived", ArticleStatusArchived.IsValid()},
	}
	for _, tc := range cases {
		if !tc.valid {
			t.Fatalf("%s should be valid", tc.name)
		}
	}

	if ArticleCategory("recipes").IsValid() {
		t.Fatal("recipes is not an article category")
	}
	if UserRole("owner").IsValid() {
		t.Fatal("owner is not a user role")
	}
	if JobStatus("open").IsValid() {
		t.Fatal("open is not a job status")
	}
	if ApplicationStatus("accepted").IsValid() {
		t.Fatal("accepted is not an application status")
	}
}

func TestParseErrorsNameTheEnum(t *testing.T) {
	_, err := ParseApplicationStatus("accepted")
	if err == nil || err.Error() != `invalid application status "accepted"` {
		t.Fatalf("unexpected error %v", err)
	}
	if len(ApplicationStatusValues()) != 6 {
		t.Fatalf("expected 6 application statuses")
	}
}
