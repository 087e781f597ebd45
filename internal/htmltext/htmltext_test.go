package htmltext

import (
	"reflect"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "What is 2+2?", want: "What is 2+2?"},
		{name: "empty", in: "", want: ""},
		{name: "paragraph tags", in: "<p>Solve for <b>x</b></p>", want: "Solve for x"},
		{name: "image removed", in: `Look: <img src="fig.png" alt="figure">done`, want: "Look: done"},
		{name: "entities unescaped", in: "a &lt; b &amp;&amp; b &gt; c", want: "a < b && b > c"},
		{name: "whitespace trimmed", in: "  <div> answer </div>  ", want: "answer"},
		{name: "markup only", in: "<br/><img src='x.png'>", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Strip(tc.in); got != tc.want {
				t.Fatalf("Strip(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripOptionsDropsEmptied(t *testing.T) {
	in := []string{"<p>Paris</p>", `<img src="london.png">`, "Berlin", "   "}
	want := []string{"Paris", "Berlin"}
	if got := StripOptions(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("StripOptions = %v, want %v", got, want)
	}
}

func TestImageSources(t *testing.T) {
	in := `<p>See <img src="a.png"> and <IMG SRC='b.jpg'></p>`
	want := []string{"a.png", "b.jpg"}
	if got := ImageSources(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("ImageSources = %v, want %v", got, want)
	}
}
