package azauth

import "testing"

func TestIsLocal(t *testing.T) {
	cases := map[string]bool{
		"http://127.0.0.1:10000/devstoreaccount1": true,
		"https://acct.blob.core.windows.net":      false,
		"https://acct.table.core.windows.net/":    false,
		"":                                        false,
	}
	for url, want := range cases {
		if got := IsLocal(url); got != want {
			t.Fatalf("IsLocal(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestAzurite(t *testing.T) {
	name, key := Azurite()
	if name != "devstoreaccount1" || key == "" {
		t.Fatalf("unexpected azurite credentials %q", name)
	}
}
