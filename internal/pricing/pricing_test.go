package pricing

import "testing"

func TestPrice(t *testing.T) {
	engine := New()

	tests := []struct {
		name       string
		in         Inputs
		wantCost   float64
		wantPayout float64
	}{
		{
			name: "canonical one-way quote",
			in: Inputs{
				TotalDistance: 10,
				BaseDistance:  6,
				MPG:           30,
				FuelPrice:     3.00,
				PickupTime:    1000,
				ETA:           1600, // 10 minutes in the car
			},
			// 4/30*3*1.25 + 6/30/2*3*1.25 + 0.3125*10 = 0.5 + 0.375 + 3.125
			wantCost:   4.00,
			wantPayout: 3.20,
		},
		{
			name: "round trip doubles before rounding",
			in: Inputs{
				TotalDistance: 10,
				BaseDistance:  6,
				MPG:           30,
				FuelPrice:     3.00,
				PickupTime:    1000,
				ETA:           1600,
				RoundTrip:     true,
			},
			wantCost:   8.00,
			wantPayout: 6.40,
		},
		{
			name: "no detour charges only shared fuel and time",
			in: Inputs{
				TotalDistance: 6,
				BaseDistance:  6,
				MPG:           30,
				FuelPrice:     3.00,
				PickupTime:    2000,
				ETA:           2000,
			},
			// 0 + 0.375 + 0
			wantCost:   0.38,
			wantPayout: 0.30,
		},
		{
			name: "cents rounding happens once at the end",
			in: Inputs{
				TotalDistance: 7.3,
				BaseDistance:  5.1,
				MPG:           28,
				FuelPrice:     3.47,
				PickupTime:    0,
				ETA:           420, // 7 minutes
			},
			// 2.2/28*3.47*1.25 + 5.1/28/2*3.47*1.25 + 0.3125*7 = 2.92371...
			wantCost:   2.92,
			wantPayout: 2.34,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Price(tt.in)
			if got.RiderCost != tt.wantCost {
				t.Errorf("RiderCost = %v, want %v", got.RiderCost, tt.wantCost)
			}
			if got.DriverPayout != tt.wantPayout {
				t.Errorf("DriverPayout = %v, want %v", got.DriverPayout, tt.wantPayout)
			}
		})
	}
}

func TestPriceDeterministic(t *testing.T) {
	engine := New()
	in := Inputs{
		TotalDistance: 12.7,
		BaseDistance:  9.2,
		MPG:           31,
		FuelPrice:     3.89,
		PickupTime:    1_700_000_000,
		ETA:           1_700_000_900,
		RoundTrip:     true,
	}

	first := engine.Price(in)
	for i := 0; i < 5; i++ {
		if got := engine.Price(in); got != first {
			t.Fatalf("quote changed between calls: %+v vs %+v", got, first)
		}
	}
}
