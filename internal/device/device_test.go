package device

import "testing"

func TestIsLoopbackName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Stereo Mix (Realtek High Definition Audio)", true},
		{"Loopback: Speakers (USB Audio)", true},
		{"Monitor of Built-in Audio Analog Stereo", true},
		{"What U Hear (Sound Blaster)", true},
		{"Microphone (USB Audio Device)", false},
		{"Line In (Realtek High Definition Audio)", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isLoopbackName(c.name); got != c.want {
			t.Errorf("isLoopbackName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
