package camera

import "testing"

func TestConfigUpdateValidate(t *testing.T) {
	tests := []struct {
		name    string
		update  ConfigUpdate
		wantErr bool
	}{
		{name: "empty", update: ConfigUpdate{}},
		{name: "iso", update: ConfigUpdate{ISO: Int(800)}},
		{name: "zero iso", update: ConfigUpdate{ISO: Int(0)}},
		{name: "negative iso", update: ConfigUpdate{ISO: Int(-100)}, wantErr: true},
		{name: "resolution", update: ConfigUpdate{Resolution: &Resolution{Width: 1920, Height: 1080}}},
		{name: "zero resolution", update: ConfigUpdate{Resolution: &Resolution{}}, wantErr: true},
		{name: "negative height", update: ConfigUpdate{Resolution: &Resolution{Width: 640, Height: -480}}, wantErr: true},
		{name: "automatic exposure", update: ConfigUpdate{Exposure: Int(0)}},
		{name: "negative exposure", update: ConfigUpdate{Exposure: Int(-1)}, wantErr: true},
		{name: "rotation 0", update: ConfigUpdate{Rotation: Int(0)}},
		{name: "rotation 90", update: ConfigUpdate{Rotation: Int(90)}},
		{name: "rotation 180", update: ConfigUpdate{Rotation: Int(180)}},
		{name: "rotation 270", update: ConfigUpdate{Rotation: Int(270)}},
		{name: "rotation 45", update: ConfigUpdate{Rotation: Int(45)}, wantErr: true},
		{name: "rotation -90", update: ConfigUpdate{Rotation: Int(-90)}, wantErr: true},
		{name: "rotation 360", update: ConfigUpdate{Rotation: Int(360)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigUpdateEmpty(t *testing.T) {
	tests := []struct {
		name   string
		update ConfigUpdate
		want   bool
	}{
		{"zero", ConfigUpdate{}, true},
		{"resolution", ConfigUpdate{Resolution: &Resolution{Width: 1, Height: 1}}, false},
		{"sensor mode", ConfigUpdate{SensorMode: Int(2)}, false},
		{"exposure", ConfigUpdate{Exposure: Int(0)}, false},
		{"iso", ConfigUpdate{ISO: Int(0)}, false},
		{"mode", ConfigUpdate{Mode: String(ModeAuto)}, false},
		{"rotation", ConfigUpdate{Rotation: Int(0)}, false},
	}
	for _, tt := range tests {
		if got := tt.update.Empty(); got != tt.want {
			t.Fatalf("%s: Empty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConfigUpdateString(t *testing.T) {
	tests := []struct {
		update ConfigUpdate
		want   string
	}{
		{ConfigUpdate{}, "{}"},
		{ConfigUpdate{ISO: Int(800), Mode: String(ModeAuto)}, "{iso=800 mode=auto}"},
		{
			ConfigUpdate{
				Resolution: &Resolution{Width: 1920, Height: 1080},
				SensorMode: Int(3),
				Exposure:   Int(250),
				ISO:        Int(100),
				Mode:       String(ModeManual),
				Rotation:   Int(180),
			},
			"{resolution=1920x1080 sensor_mode=3 exposure=250ms iso=100 mode=off rotation=180}",
		},
	}
	for _, tt := range tests {
		if got := tt.update.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}
