package client

import (
	"net/url"
	"strconv"

	"commhub/models"
)

// typeahead page size; the compose dialog never needs more candidates
const searchPageSize = 50

// SearchUsers queries the user typeahead endpoint.
func (c *Client) SearchUsers(search string) ([]models.User, error) {
	q := url.Values{}
	q.Set("search", search)
	q.Set("page_size", strconv.Itoa(searchPageSize))

	var env listEnvelope[models.User]
	if err := c.getJSON("/users", q, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// Profile returns the user record the backend token authenticates as.
func (c *Client) Profile() (models.User, error) {
	var user models.User
	if err := c.getJSON("/users/me", nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SearchGroups queries the group typeahead endpoint.
func (c *Client) SearchGroups(search string) ([]models.Group, error) {
	q := url.Values{}
	q.Set("search", search)
	q.Set("page_size", strconv.Itoa(searchPageSize))

	var env listEnvelope[models.Group]
	if err := c.getJSON("/groups", q, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}
