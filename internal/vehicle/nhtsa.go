// Package vehicle serves the car make/model catalog drivers register against,
// backed by the NHTSA vPIC API.
package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Catalog interface {
	Makes(ctx context.Context) ([]string, error)
	ModelsForMake(ctx context.Context, make string) ([]string, error)
}

type NHTSAClient struct {
	baseURL string
	client  *http.Client
}

func NewNHTSAClient() *NHTSAClient {
	return &NHTSAClient{
		baseURL: "https://vpic.nhtsa.dot.gov/api/vehicles",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type makesResponse struct {
	Results []struct {
		MakeName string `json:"Make_Name"`
	} `json:"Results"`
}

type modelsResponse struct {
	Results []struct {
		ModelName string `json:"Model_Name"`
	} `json:"Results"`
}

func (c *NHTSAClient) Makes(ctx context.Context) ([]string, error) {
	var body makesResponse
	if err := c.get(ctx, c.baseURL+"/GetAllMakes?format=json", &body); err != nil {
		return nil, err
	}

	makes := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		makes = append(makes, r.MakeName)
	}
	return makes, nil
}

func (c *NHTSAClient) ModelsForMake(ctx context.Context, carMake string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/GetModelsForMake/%s?format=json", c.baseURL, url.PathEscape(carMake))
	var body modelsResponse
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		models = append(models, r.ModelName)
	}
	return models, nil
}

func (c *NHTSAClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vpic returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
