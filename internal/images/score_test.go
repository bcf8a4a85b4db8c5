package images

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		dish string
		c    Candidate
		want int
	}{
		{
			name: "exact alt match",
			dish: "Spring Rolls",
			c:    Candidate{Alt: "Our famous spring rolls", URL: "https://x.example/img/photo.jpg"},
			want: 10,
		},
		{
			name: "partial alt overlap",
			dish: "Crispy Spring Rolls",
			c:    Candidate{Alt: "spring vegetables", URL: "https://x.example/img/photo.jpg"},
			want: 2,
		},
		{
			name: "title match stacks with alt overlap",
			dish: "Pad Thai",
			c:    Candidate{Alt: "pad something", Title: "Pad Thai with shrimp", URL: "https://x.example/a.jpg"},
			want: 2 + 8,
		},
		{
			name: "filename hit counts once",
			dish: "Caesar Salad",
			c:    Candidate{URL: "https://x.example/img/caesar-salad-large.jpg"},
			want: 3,
		},
		{
			name: "short filename words ignored",
			dish: "Pho Bo",
			c:    Candidate{URL: "https://x.example/img/pho-bo.jpg"},
			want: 0,
		},
		{
			name: "ancestor verbatim",
			dish: "Pad Thai",
			c:    Candidate{URL: "https://x.example/a.jpg", Ancestors: []string{"Pad Thai $12.99 stir-fried noodles"}},
			want: 5,
		},
		{
			name: "ancestor overlap only",
			dish: "Green Papaya Salad",
			c:    Candidate{URL: "https://x.example/a.jpg", Ancestors: []string{"fresh papaya and salad greens"}},
			want: 2,
		},
		{
			name: "nothing matches",
			dish: "Tiramisu",
			c:    Candidate{Alt: "restaurant interior", URL: "https://x.example/room.jpg"},
			want: 0,
		},
		{
			name: "empty dish name",
			dish: "",
			c:    Candidate{Alt: "anything"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.dish, tt.c); got != tt.want {
				t.Errorf("Score(%q, %+v) = %d, want %d", tt.dish, tt.c, got, tt.want)
			}
		})
	}
}

func TestSignificantWords(t *testing.T) {
	got := significantWords("Pad-Thai of 99 wonders")
	want := []string{"pad", "thai", "wonders"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
