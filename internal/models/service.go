package models

// Service is a catalog record describing one monitored service. The catalog
// is owned by an external system; this service only reads it.
type Service struct {
	ServiceID     string            `json:"service_id"`
	Name          string            `json:"name"`
	Title         string            `json:"title,omitempty"`
	ServiceStatus string            `json:"service_status,omitempty"`
	Properties    []ServiceProperty `json:"properties,omitempty"`
}

// ServiceProperty is one named property attached to a service.
type ServiceProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Order int    `json:"service_property_value_order,omitempty"`
}

// Property returns the first value for the named property, or "" if the
// service does not carry it.
func (s *Service) Property(name string) string {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// URL returns the conventional "url" property used for service resolution.
func (s *Service) URL() string {
	return s.Property("url")
}
