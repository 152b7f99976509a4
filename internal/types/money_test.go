package types

import "testing"

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{MoneyFromFloat(123456.6, "KRW"), "123,457원"},
		{Money{Amount: 999, Currency: "KRW"}, "999원"},
		{Money{Amount: 1000, Currency: "USD"}, "1,000 USD"},
		{Money{Amount: -1234567, Currency: "KRW"}, "-1,234,567원"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("%+v.String() = %q, want %q", tc.m, got, tc.want)
		}
	}
}
