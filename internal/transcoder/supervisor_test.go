package transcoder

import "testing"

func TestCodecForMP3ReturnsLibmp3lame(t *testing.T) {
	if got := codecFor("mp3"); got != "libmp3lame" {
		t.Errorf("expected libmp3lame, got %q", got)
	}
}

func TestCodecForOpusReturnsLibopus(t *testing.T) {
	if got := codecFor("opus"); got != "libopus" {
		t.Errorf("expected libopus, got %q", got)
	}
}

func TestCodecForAACReturnsAAC(t *testing.T) {
	if got := codecFor("aac"); got != "aac" {
		t.Errorf("expected aac, got %q", got)
	}
}

func TestCodecForVorbisReturnsLibvorbis(t *testing.T) {
	if got := codecFor("vorbis"); got != "libvorbis" {
		t.Errorf("expected libvorbis, got %q", got)
	}
}

func TestCodecForOggReturnsLibvorbis(t *testing.T) {
	if got := codecFor("ogg"); got != "libvorbis" {
		t.Errorf("expected libvorbis, got %q", got)
	}
}

func TestCodecForFlacReturnsFlac(t *testing.T) {
	if got := codecFor("flac"); got != "flac" {
		t.Errorf("expected flac, got %q", got)
	}
}

func TestCodecForUnknownFormatDefaultsToLibmp3lame(t *testing.T) {
	if got := codecFor("unknown"); got != "libmp3lame" {
		t.Errorf("expected libmp3lame default, got %q", got)
	}
}
