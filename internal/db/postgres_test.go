package db

import "testing"

func TestConfigDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "with password",
			cfg:  Config{Host: "localhost", Port: 5432, User: "courier", Password: "secret", Database: "courier", SSLMode: "disable"},
			want: "host=localhost port=5432 user=courier password=secret dbname=courier sslmode=disable",
		},
		{
			name: "without password",
			cfg:  Config{Host: "db", Port: 6432, User: "app", Database: "notify", SSLMode: "require"},
			want: "host=db port=6432 user=app dbname=notify sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
