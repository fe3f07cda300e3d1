package speech

import "testing"

func TestExtractDigits(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"my id is 12 34", "1234"},
		{"CC62287740", "62287740"},
		{"", ""},
		{"one two three", ""},
		{"1-2-3, 4.5", "12345"},
		{"my account is 9900 thanks", "9900"},
		{"खाता १२३४", "1234"},
		{"٣٤٥ and 6", "3456"},
		{"১০ ৯", "109"},
		{"\U0001D7D8\U0001D7E1", "09"},
		{"½ ² ⅷ", ""},
	}
	for _, tc := range cases {
		if got := ExtractDigits(tc.in); got != tc.want {
			t.Fatalf("ExtractDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractDigits_Idempotent(t *testing.T) {
	for _, in := range []string{"a1b2c3", "  42 ", "x", "१२ 3"} {
		once := ExtractDigits(in)
		if twice := ExtractDigits(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+917417119014"); got != "XXXXXXXXX9014" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskPhone("123"); got != "123" {
		t.Fatalf("short input should pass through, got %q", got)
	}
	if got := MaskPhone("1234"); got != "1234" {
		t.Fatalf("four chars should pass through, got %q", got)
	}
}

func TestLastDigits(t *testing.T) {
	if got := LastDigits("+917417119014", 4); got != "9014" {
		t.Fatalf("unexpected suffix %q", got)
	}
	if got := LastDigits("12", 4); got != "12" {
		t.Fatalf("unexpected suffix %q", got)
	}
}
